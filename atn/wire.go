package atn

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Frame kinds:
const (
	KindDescribe = "describe"
	KindRun      = "run"
	KindQuit     = "quit"
	KindResult   = "result"
	KindError    = "error"
)

// MaxPayload is the largest accepted frame payload.
const MaxPayload = 64 << 20

var crcTable = crc32.MakeTable(crc32.IEEE)

// Frame is a protocol message:
//
//	@frame{kind=K len=N crc=XXXXXXXX}\n
//	<payload bytes>\n
type Frame struct {
	Kind    string
	Payload []byte
}

// CRCMismatchError is returned when a frame checksum does not match its payload.
type CRCMismatchError struct {
	Expected, Got uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("frame crc mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// WriteFrame writes a single frame.
func WriteFrame(w io.Writer, kind string, payload []byte) error {
	header := fmt.Sprintf("@frame{kind=%s len=%d crc=%08x}\n", kind, len(payload), crc32.Checksum(payload, crcTable))
	if _, e := io.WriteString(w, header); e != nil {
		return fmt.Errorf("write header: %w", e)
	}
	if len(payload) > 0 {
		if _, e := w.Write(payload); e != nil {
			return fmt.Errorf("write payload: %w", e)
		}
	}
	if _, e := io.WriteString(w, "\n"); e != nil {
		return fmt.Errorf("write trailing newline: %w", e)
	}
	return nil
}

// ReadFrame reads a single frame and verifies its checksum.
// Returns io.EOF if there are no more frames.
func ReadFrame(r *bufio.Reader) (*Frame, error) {
	line, e := r.ReadString('\n')
	if e != nil {
		if e == io.EOF && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", e)
	}

	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@frame{") || !strings.HasSuffix(line, "}") {
		return nil, fmt.Errorf("malformed frame header %q", line)
	}

	f := &Frame{}
	size := -1
	var crc uint32
	hasCRC := false
	for _, pair := range strings.Fields(line[len("@frame{") : len(line)-1]) {
		key, val, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		switch key {
		case "kind":
			f.Kind = val
		case "len":
			n, e := strconv.Atoi(val)
			if e != nil || n < 0 {
				return nil, fmt.Errorf("invalid frame length %q", val)
			}
			size = n
		case "crc":
			n, e := strconv.ParseUint(val, 16, 32)
			if e != nil {
				return nil, fmt.Errorf("invalid frame crc %q", val)
			}
			crc = uint32(n)
			hasCRC = true
		}
	}
	if f.Kind == "" || size < 0 {
		return nil, fmt.Errorf("incomplete frame header %q", line)
	}
	if size > MaxPayload {
		return nil, fmt.Errorf("frame payload too large: %d > %d", size, MaxPayload)
	}

	f.Payload = make([]byte, size)
	if _, e := io.ReadFull(r, f.Payload); e != nil {
		return nil, fmt.Errorf("read payload: %w", e)
	}
	if b, e := r.ReadByte(); e == nil && b != '\n' {
		_ = r.UnreadByte()
	}

	if hasCRC {
		if got := crc32.Checksum(f.Payload, crcTable); got != crc {
			return nil, &CRCMismatchError{Expected: crc, Got: got}
		}
	}
	return f, nil
}

// Description is the reply to a describe request.
type Description struct {
	GrammarName    string     `json:"grammarName"`
	HasParser      bool       `json:"hasParser"`
	RuleNames      []string   `json:"ruleNames"`
	LexerRuleNames []string   `json:"lexerRuleNames"`
	Vocabulary     Vocabulary `json:"vocabulary"`
}

// RunRequest is the payload of a run request.
type RunRequest struct {
	Input string `json:"input"`
}

// RunResult is the reply to a run request.
// Tokens do not include EOF, Tree is nil for lexer-only grammars.
type RunResult struct {
	Tokens       []*Token       `json:"tokens"`
	Tree         *WireNode      `json:"tree,omitempty"`
	LexerErrors  []*SyntaxError `json:"lexerErrors,omitempty"`
	ParserErrors []*SyntaxError `json:"parserErrors,omitempty"`
}

// Native tree node kinds on the wire:
const (
	WireRule     = "rule"
	WireTerminal = "terminal"
	WireError    = "error"
)

// WireNode is a serializable native tree node.
type WireNode struct {
	Kind     string      `json:"kind"`
	Rule     int         `json:"rule,omitempty"`
	Token    *Token      `json:"token,omitempty"`
	Children []*WireNode `json:"children,omitempty"`
}

// EncodeTree converts native tree to its wire form.
func EncodeTree(t Tree) *WireNode {
	switch n := t.(type) {
	case *RuleNode:
		w := &WireNode{Kind: WireRule, Rule: n.Rule, Children: make([]*WireNode, 0, len(n.Children))}
		for _, c := range n.Children {
			w.Children = append(w.Children, EncodeTree(c))
		}
		return w
	case *TerminalNode:
		return &WireNode{Kind: WireTerminal, Token: n.Token}
	case *ErrorNode:
		return &WireNode{Kind: WireError, Token: n.Token}
	}
	return nil
}

// DecodeTree converts wire form back to native tree.
func DecodeTree(w *WireNode) (Tree, error) {
	if w == nil {
		return nil, errors.New("missing tree node")
	}

	switch w.Kind {
	case WireRule:
		n := &RuleNode{Rule: w.Rule}
		for _, c := range w.Children {
			child, e := DecodeTree(c)
			if e != nil {
				return nil, e
			}
			n.AddChild(child)
		}
		return n, nil
	case WireTerminal, WireError:
		if w.Token == nil {
			return nil, fmt.Errorf("%s node without token", w.Kind)
		}
		if w.Kind == WireTerminal {
			return &TerminalNode{Token: w.Token}, nil
		}
		return &ErrorNode{Token: w.Token}, nil
	}
	return nil, fmt.Errorf("unknown tree node kind %q", w.Kind)
}

var reservedMethods = map[string]bool{
	"Parse":        true,
	"Parser":       true,
	"LT":           true,
	"LA":           true,
	"SyntaxErrors": true,
}

// MethodName returns the name of generated parser method invoking the rule.
func MethodName(rule string) string {
	r, size := utf8.DecodeRuneInString(rule)
	name := string(unicode.ToUpper(r)) + rule[size:]
	if reservedMethods[name] {
		name += "_"
	}
	return name
}

// SyntaxErrors returns collected syntax errors.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.Errors
}

// Host describes a generated program served by Serve.
type Host struct {
	Network *Network

	// NewParser creates generated parser over tokens, nil for lexer-only grammars.
	// The parser must have a method returning (*RuleNode, error) for each rule, named by MethodName.
	NewParser func(tokens []*Token) any
}

// Serve answers requests read from r until a quit request or the end of input.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h Host) error {
	br := bufio.NewReader(r)
	for {
		f, e := ReadFrame(br)
		if e == io.EOF {
			return nil
		}
		if e != nil {
			return e
		}

		var reply any
		switch f.Kind {
		case KindQuit:
			return nil
		case KindDescribe:
			reply = h.describe()
		case KindRun:
			var req RunRequest
			if e = json.Unmarshal(f.Payload, &req); e == nil {
				reply, e = h.run(ctx, req.Input)
			}
		default:
			e = fmt.Errorf("unknown request kind %q", f.Kind)
		}

		if e != nil {
			if we := WriteFrame(w, KindError, []byte(e.Error())); we != nil {
				return we
			}
			continue
		}

		payload, e := json.Marshal(reply)
		if e != nil {
			return e
		}
		if e = WriteFrame(w, KindResult, payload); e != nil {
			return e
		}
	}
}

func (h Host) describe() *Description {
	return &Description{
		GrammarName:    h.Network.GrammarName,
		HasParser:      h.NewParser != nil,
		RuleNames:      h.Network.RuleNames,
		LexerRuleNames: h.Network.LexerRuleNames,
		Vocabulary:     h.Network.Vocabulary,
	}
}

func (h Host) run(ctx context.Context, input string) (res *RunResult, e error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			e = fmt.Errorf("panic: %v", r)
		}
	}()

	l, e := NewLexer(h.Network, input)
	if e != nil {
		return nil, e
	}
	tokens, e := l.Tokenize(ctx)
	if e != nil {
		return nil, e
	}

	res = &RunResult{Tokens: tokens[:len(tokens)-1], LexerErrors: l.Errors}
	if h.NewParser == nil {
		return res, nil
	}

	parser := reflect.ValueOf(h.NewParser(tokens))
	start := parser.MethodByName(MethodName(h.Network.RuleNames[0]))
	if !start.IsValid() {
		return nil, fmt.Errorf("start rule method %s not found", MethodName(h.Network.RuleNames[0]))
	}
	out := start.Call(nil)
	if len(out) != 2 {
		return nil, fmt.Errorf("start rule method %s: unexpected signature", MethodName(h.Network.RuleNames[0]))
	}
	if err, _ := out[1].Interface().(error); err != nil {
		return nil, err
	}
	root, _ := out[0].Interface().(*RuleNode)
	if root == nil {
		return nil, errors.New("start rule returned no tree")
	}
	res.Tree = EncodeTree(root)

	if se, ok := parser.Interface().(interface{ SyntaxErrors() []*SyntaxError }); ok {
		res.ParserErrors = se.SyntaxErrors()
	}
	return res, nil
}

// Client sends requests to a program running Serve.
type Client struct {
	r *bufio.Reader
	w io.Writer
}

func NewClient(r io.Reader, w io.Writer) *Client {
	return &Client{bufio.NewReader(r), w}
}

func (c *Client) call(kind string, req, reply any) error {
	var payload []byte
	if req != nil {
		var e error
		payload, e = json.Marshal(req)
		if e != nil {
			return e
		}
	}
	if e := WriteFrame(c.w, kind, payload); e != nil {
		return e
	}

	f, e := ReadFrame(c.r)
	if e == io.EOF {
		return io.ErrUnexpectedEOF
	}
	if e != nil {
		return e
	}
	switch f.Kind {
	case KindError:
		return &RemoteError{string(f.Payload)}
	case KindResult:
		return json.Unmarshal(f.Payload, reply)
	}
	return fmt.Errorf("unexpected reply kind %q", f.Kind)
}

// RemoteError is an error reported by the served program.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Describe asks for grammar description.
func (c *Client) Describe() (*Description, error) {
	d := &Description{}
	if e := c.call(KindDescribe, nil, d); e != nil {
		return nil, e
	}
	return d, nil
}

// Run asks to recognize input.
func (c *Client) Run(input string) (*RunResult, error) {
	res := &RunResult{}
	if e := c.call(KindRun, RunRequest{Input: input}, res); e != nil {
		return nil, e
	}
	return res, nil
}

// Quit asks the program to stop.
func (c *Client) Quit() error {
	return WriteFrame(c.w, KindQuit, nil)
}
