package compiled

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ava12/g4scope/diag"
)

//go:generate mockgen -source=toolchain.go -destination=mock_toolchain_test.go -package=compiled

// Toolchain compiles generated programs.
type Toolchain interface {
	// Build compiles module in dir to output binary, returns compiler output.
	Build(ctx context.Context, dir, output string) ([]byte, error)
}

// GoToolchain runs go build offline, module is built in isolation from any workspace.
type GoToolchain struct {
	// Command contains go command path, "go" is used if empty.
	Command string
}

var buildEnv = []string{"GOWORK=off", "GOFLAGS=-mod=mod", "GOPROXY=off", "CGO_ENABLED=0"}

func (t GoToolchain) command() string {
	if t.Command == "" {
		return "go"
	}
	return t.Command
}

// Available returns true if go command can be found.
func (t GoToolchain) Available() bool {
	_, e := exec.LookPath(t.command())
	return e == nil
}

func (t GoToolchain) Build(ctx context.Context, dir, output string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.command(), "build", "-o", output, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), buildEnv...)
	return cmd.CombinedOutput()
}

var diagnosticRe = regexp.MustCompile(`^(.+?\.go):(\d+)(?::(\d+))?: (.+)$`)

// ParseDiagnostics converts "file:line:col: message" lines of compiler output to COMPILER messages.
// File names are made relative to dir and prepended to messages.
// Lines not looking like diagnostics are ignored.
func ParseDiagnostics(output []byte, dir string) diag.List {
	var res diag.List
	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		match := diagnosticRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if match == nil {
			continue
		}

		file := strings.TrimPrefix(match[1], "./")
		if rel, e := filepath.Rel(dir, file); e == nil && filepath.IsAbs(file) {
			file = rel
		}
		line, _ := strconv.Atoi(match[2])
		col := diag.UnknownPos
		if match[3] != "" {
			col, _ = strconv.Atoi(match[3])
		}
		res.Add(diag.ErrorMessage{
			Line:    line,
			Column:  col,
			Message: filepath.ToSlash(file) + ": " + match[4],
			Source:  diag.Compiler,
			Code:    BuildError,
		})
	}
	return res
}
