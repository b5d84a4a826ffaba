package compiled

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ava12/g4scope/internal/ctxlog"
)

//go:generate mockgen -source=launcher.go -destination=mock_launcher_test.go -package=compiled

// Process is a running generated program.
type Process interface {
	Stdin() io.Writer
	Stdout() io.Reader

	// Stderr returns everything the program has written to its error output so far.
	Stderr() string

	// Close closes program input and waits for program exit.
	Close() error
}

// Launcher starts generated programs.
type Launcher interface {
	Launch(ctx context.Context, binary string) (Process, error)
}

// ExecLauncher starts every program as a child process killed when launch context is done.
type ExecLauncher struct{}

// maxStderr limits kept error output of a program.
const maxStderr = 64 << 10

type childProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	drain  errgroup.Group

	mu     sync.Mutex
	stderr strings.Builder
}

func (ExecLauncher) Launch(ctx context.Context, binary string) (Process, error) {
	cmd := exec.CommandContext(ctx, binary)
	stdin, e := cmd.StdinPipe()
	if e != nil {
		return nil, e
	}
	stdout, e := cmd.StdoutPipe()
	if e != nil {
		return nil, e
	}
	stderr, e := cmd.StderrPipe()
	if e != nil {
		return nil, e
	}
	if e = cmd.Start(); e != nil {
		return nil, e
	}

	p := &childProcess{cmd: cmd, stdin: stdin, stdout: stdout}
	log := ctxlog.FromContext(ctx).With("pid", cmd.Process.Pid)
	p.drain.Go(func() error {
		return p.readStderr(stderr, log)
	})
	return p, nil
}

func (p *childProcess) readStderr(r io.Reader, log *slog.Logger) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		log.Debug("program output", "line", line)
		p.mu.Lock()
		if p.stderr.Len() < maxStderr {
			p.stderr.WriteString(line)
			p.stderr.WriteByte('\n')
		}
		p.mu.Unlock()
	}
	return sc.Err()
}

func (p *childProcess) Stdin() io.Writer {
	return p.stdin
}

func (p *childProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *childProcess) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr.String()
}

func (p *childProcess) Close() error {
	ce := p.stdin.Close()
	de := p.drain.Wait()
	we := p.cmd.Wait()
	if we != nil {
		var exitErr *exec.ExitError
		if errors.As(we, &exitErr) {
			if msg := lastLine(p.Stderr()); msg != "" {
				we = fmt.Errorf("%w: %s", we, msg)
			}
		}
	}
	return errors.Join(ce, de, we)
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		return text[i+1:]
	}
	return text
}
