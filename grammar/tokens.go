package grammar

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/lexer"
	"github.com/ava12/g4scope/source"
)

const (
	idTok      = "id"
	literalTok = "literal"
	setTok     = "set"
	intTok     = "int"
	opTok      = "op"
	actionTok  = "action"
	wrongTok   = ""
)

const (
	idTokType = iota + 1
	literalTokType
	setTokType
	intTokType
	opTokType
	lCurlyTokType
	actionTokType
)

const (
	colonTok      = ":"
	semicolonTok  = ";"
	pipeTok       = "|"
	lBraceTok     = "("
	rBraceTok     = ")"
	lCurlyTok     = "{"
	rCurlyTok     = "}"
	commaTok      = ","
	assignTok     = "="
	plusAssignTok = "+="
	hashTok       = "#"
	arrowTok      = "->"
	rangeTok      = ".."
	dotTok        = "."
	notTok        = "~"
	atTok         = "@"
	scopeTok      = "::"
	ltTok         = "<"
	gtTok         = ">"
	questionTok   = "?"
	starTok       = "*"
	plusTok       = "+"
)

var g4Lexer *lexer.Lexer

func init() {
	tokenTypes := []lexer.TokenType{
		{Type: idTokType, TypeName: idTok},
		{Type: literalTokType, TypeName: literalTok},
		{Type: setTokType, TypeName: setTok},
		{Type: intTokType, TypeName: intTok},
		{Type: opTokType, TypeName: opTok},
		{Type: lCurlyTokType, TypeName: opTok},
		{Type: lexer.ErrorTokenType, TypeName: wrongTok},
	}

	re := regexp.MustCompile(
		`^(?:\s+|//[^\n]*|/\*(?s:.*?)\*/|` +
			`([a-zA-Z_][a-zA-Z_0-9]*)|` +
			`('(?:[^'\\\n]|\\.)*')|` +
			`(\[(?:[^\]\\]|\\.)*\])|` +
			`([0-9]+)|` +
			`(->|\.\.|\+=|::|[:;|()?*+~.=#,<>@}])|` +
			`(\{)|` +
			`('|\[|/\*))`)

	g4Lexer = lexer.New(re, tokenTypes)
}

// scanner fetches grammar tokens, reporting and skipping unrecognized input.
// Curly braces start embedded actions unless braces is set.
type scanner struct {
	cursor *lexer.Cursor
	saved  []*lexer.Token
	braces bool
	report func(*g4scope.Error)
}

func newScanner(src *source.Source, report func(*g4scope.Error)) *scanner {
	return &scanner{cursor: lexer.NewCursor(src), report: report}
}

func isEof(t *lexer.Token) bool {
	return t.Type() == lexer.EofTokenType
}

func (s *scanner) put(t *lexer.Token) {
	s.saved = append(s.saved, t)
}

func (s *scanner) next() *lexer.Token {
	if len(s.saved) > 0 {
		t := s.saved[len(s.saved)-1]
		s.saved = s.saved[:len(s.saved)-1]
		return t
	}

	for {
		t, e := g4Lexer.Next(s.cursor)
		if e == nil {
			if t.Type() == lCurlyTokType && !s.braces {
				return s.action(t)
			}
			return t
		}

		s.skipBadInput(e)
	}
}

func (s *scanner) peek() *lexer.Token {
	t := s.next()
	s.put(t)
	return t
}

func (s *scanner) errorToken(size int) *lexer.Token {
	text := string(s.cursor.Rest()[:size])
	sp := source.NewPos(s.cursor.Source(), s.cursor.Pos())
	return lexer.NewToken(lexer.ErrorTokenType, wrongTok, text, sp)
}

func (s *scanner) skipBadInput(e error) {
	rest := s.cursor.Rest()
	var le *g4scope.Error
	if !errors.As(e, &le) || le.Code != lexer.BadTokenError {
		_, size := utf8.DecodeRune(rest)
		s.report(recognitionError(s.errorToken(size)))
		s.cursor.Skip(size)
		return
	}

	size := bytes.IndexByte(rest, '\n')
	if size < 0 {
		size = len(rest)
	}
	switch rest[0] {
	case '\'':
		s.report(unterminatedError(s.errorToken(1), "string literal"))
	case '[':
		s.report(unterminatedError(s.errorToken(1), "character set"))
	default:
		s.report(unterminatedError(s.errorToken(2), "comment"))
		size = len(rest)
	}
	s.cursor.Skip(size)
}

func (s *scanner) action(open *lexer.Token) *lexer.Token {
	size, closed := actionLen(s.cursor.Rest())
	text := "{" + string(s.cursor.Rest()[:size])
	t := lexer.NewToken(actionTokType, actionTok, text, source.NewPos(s.cursor.Source(), open.Pos()))
	if !closed {
		s.report(unterminatedError(open, "action"))
	}
	s.cursor.Skip(size)
	return t
}

// actionLen returns the length of action content following the opening brace, including the closing brace.
// Nested braces, quoted strings, and comments are taken into account.
func actionLen(content []byte) (int, bool) {
	depth := 1
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++

		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}

		case '\\':
			i++

		case '\'', '"':
			q := content[i]
			for i++; i < len(content) && content[i] != q && content[i] != '\n'; i++ {
				if content[i] == '\\' {
					i++
				}
			}

		case '/':
			if i+1 >= len(content) {
				break
			}
			switch content[i+1] {
			case '/':
				for i < len(content) && content[i] != '\n' {
					i++
				}
			case '*':
				end := bytes.Index(content[i+2:], []byte("*/"))
				if end < 0 {
					return len(content), false
				}
				i += end + 3
			}
		}
	}
	return len(content), false
}

type escapeCharEntry struct {
	substitute rune
	hex        bool
}

var escapeCharMap = map[byte]escapeCharEntry{
	'\\': {'\\', false},
	'\'': {'\'', false},
	'"':  {'"', false},
	'n':  {'\n', false},
	'r':  {'\r', false},
	't':  {'\t', false},
	'b':  {'\b', false},
	'f':  {'\f', false},
	'u':  {0, true},
}

// unescape decodes escape sequences of literal content.
// Returns decoded text and the first invalid escape sequence, if any.
func unescape(content string) (string, string) {
	res := make([]byte, 0, len(content))
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c != '\\' {
			res = append(res, c)
			continue
		}

		if i+1 >= len(content) {
			return string(res), "\\"
		}

		letter := content[i+1]
		entry, valid := escapeCharMap[letter]
		if !valid {
			return string(res), content[i : i+2]
		}

		if !entry.hex {
			res = utf8.AppendRune(res, entry.substitute)
			i++
			continue
		}

		r, size := decodeHexEscape(content[i:])
		if size == 0 {
			end := i + 6
			if end > len(content) {
				end = len(content)
			}
			return string(res), content[i:end]
		}
		res = utf8.AppendRune(res, r)
		i += size - 1
	}
	return string(res), ""
}

// decodeHexEscape decodes \uXXXX or \u{X...} sequence at the start of content.
// Returns zero size if the sequence is invalid.
func decodeHexEscape(content string) (rune, int) {
	digits := content[2:]
	size := 6
	if len(digits) > 0 && digits[0] == '{' {
		end := strings.IndexByte(digits, '}')
		if end < 2 || end > 7 {
			return 0, 0
		}
		size = end + 3
		digits = digits[1:end]
	} else if len(digits) < 4 {
		return 0, 0
	} else {
		digits = digits[:4]
	}

	var r rune
	for _, d := range []byte(digits) {
		var v byte
		switch {
		case d >= '0' && d <= '9':
			v = d - '0'
		case d >= 'a' && d <= 'f':
			v = d - 'a' + 10
		case d >= 'A' && d <= 'F':
			v = d - 'A' + 10
		default:
			return 0, 0
		}
		r = r<<4 | rune(v)
	}
	if !utf8.ValidRune(r) {
		return 0, 0
	}
	return r, size
}
