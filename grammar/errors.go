package grammar

import (
	"strconv"
	"strings"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/lexer"
)

// Error codes used by grammar loader:
const (
	SyntaxError = g4scope.GrammarErrors + iota
	TokenRecognitionError
	UnterminatedError
	DuplicateRuleError
	UndefinedRuleError
	UndefinedTokenError
	FragmentReferenceError
	ParserRuleInLexerError
	LexerRuleInParserError
	UnsupportedCommandError
	CommandArgumentError
	UnsupportedFeatureError
	AmbiguousLiteralError
	UndefinedLiteralError
	EmptyTokenError
	RecursiveTokenError
	InvalidSetError
	EmptyClosureError
	LeftRecursionError
	NoRulesError
	ModeInParserError
	MissingVocabularyError
	UnknownModeError
	UnknownChannelError
	InvalidEscapeError
	ParserRuleReferenceError
	LexerElementInParserError
	NotSetError
	NotLexerVocabularyError

	// InternalError is an invariant failure of the loader itself, it is reported as UNKNOWN.
	InternalError
)

type errorEntry struct {
	template string
	fatal    bool
}

// Templates use <arg>, <arg1>, <arg2> placeholders for the first, second, and third arguments.
var errorCatalogue = map[int]errorEntry{
	SyntaxError:             {"syntax error: <arg>", false},
	TokenRecognitionError:   {"token recognition error at: <arg>", false},
	UnterminatedError:       {"unterminated <arg>", false},
	DuplicateRuleError:      {"rule <arg> redefinition; previous at line <arg1>", false},
	UndefinedRuleError:      {"reference to undefined rule: <arg><arg1>", true},
	UndefinedTokenError:     {"reference to undefined token: <arg><arg1>", true},
	FragmentReferenceError:  {"fragment rule <arg> cannot be referenced from parser rule <arg1>", true},
	ParserRuleInLexerError:  {"parser rule <arg> not allowed in lexer", false},
	LexerRuleInParserError:  {"lexer rule <arg> not allowed in parser", false},
	UnsupportedCommandError: {"lexer command <arg> does not exist or is not supported by the current target", false},
	CommandArgumentError:    {"lexer command <arg> <arg1>", true},
	UnsupportedFeatureError: {"<arg> is not supported", false},
	AmbiguousLiteralError:   {"literal <arg> is defined by both <arg1> and <arg2>", false},
	UndefinedLiteralError:   {"cannot create implicit token for string literal in non-combined grammar: <arg>", true},
	EmptyTokenError:         {"non-fragment lexer rule <arg> can match the empty string", true},
	RecursiveTokenError:     {"lexer rule <arg> is recursive", true},
	InvalidSetError:         {"invalid character set <arg>: <arg1>", true},
	EmptyClosureError:       {"rule <arg> contains a closure with at least one alternative that can match an empty string", true},
	LeftRecursionError:      {"the following sets of rules are mutually left-recursive [<arg>]", true},
	NoRulesError:            {"grammar <arg> has no rules", true},
	ModeInParserError:       {"lexical modes are only allowed in lexer grammars", false},
	MissingVocabularyError:  {"parser grammar <arg> requires a lexer vocabulary", true},
	UnknownModeError:        {"<arg> is not a recognized mode name", true},
	UnknownChannelError:     {"<arg> is not a recognized channel name", true},
	InvalidEscapeError:      {"invalid escape sequence <arg>", true},

	ParserRuleReferenceError:  {"reference to parser rule <arg> in lexer rule <arg1>", true},
	LexerElementInParserError: {"<arg> is only allowed in lexer rules", true},
	NotSetError:               {"operand of ~ in rule <arg> must be a token, a literal, or a set of them", true},
	NotLexerVocabularyError:   {"grammar <arg> is not a lexer grammar", true},

	InternalError: {"internal error: <arg>", true},
}

// IsFatal returns true if a grammar having an error with this code cannot produce a model.
func IsFatal(code int) bool {
	return errorCatalogue[code].fatal
}

func formatTemplate(template string, args ...string) string {
	res := template
	for i, arg := range args {
		placeholder := "<arg>"
		if i > 0 {
			placeholder = "<arg" + strconv.Itoa(i) + ">"
		}
		res = strings.ReplaceAll(res, placeholder, arg)
	}
	return res
}

func newError(code int, name string, line, col int, args ...string) *g4scope.Error {
	return &g4scope.Error{
		Code:       code,
		Message:    formatTemplate(errorCatalogue[code].template, args...),
		SourceName: name,
		Line:       line,
		Col:        col,
	}
}

func tokenError(t *lexer.Token, code int, args ...string) *g4scope.Error {
	return newError(code, t.SourceName(), t.Line(), t.Col(), args...)
}

func internalError(msg string) *g4scope.Error {
	return newError(InternalError, "", 0, 0, msg)
}

func quote(text string) string {
	return "'" + text + "'"
}

func syntaxError(t *lexer.Token, msg string) *g4scope.Error {
	return tokenError(t, SyntaxError, msg)
}

func unexpectedTokenError(t *lexer.Token, expected string) *g4scope.Error {
	if t.Type() == lexer.EofTokenType {
		return syntaxError(t, "missing "+expected+" at '<EOF>'")
	}
	return syntaxError(t, "mismatched input "+quote(t.Text())+" expecting "+expected)
}

func recognitionError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, TokenRecognitionError, quote(t.Text()))
}

func unterminatedError(t *lexer.Token, what string) *g4scope.Error {
	return tokenError(t, UnterminatedError, what)
}

func duplicateRuleError(t *lexer.Token, prev *lexer.Token) *g4scope.Error {
	return tokenError(t, DuplicateRuleError, t.Text(), strconv.Itoa(prev.Line()))
}

func suggestion(name string) string {
	if name == "" {
		return ""
	}
	return "; did you mean " + name + "?"
}

func undefinedRuleError(t *lexer.Token, similar string) *g4scope.Error {
	return tokenError(t, UndefinedRuleError, t.Text(), suggestion(similar))
}

func undefinedTokenError(t *lexer.Token, similar string) *g4scope.Error {
	return tokenError(t, UndefinedTokenError, t.Text(), suggestion(similar))
}

func fragmentReferenceError(t *lexer.Token, rule string) *g4scope.Error {
	return tokenError(t, FragmentReferenceError, t.Text(), rule)
}

func parserRuleInLexerError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, ParserRuleInLexerError, t.Text())
}

func lexerRuleInParserError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, LexerRuleInParserError, t.Text())
}

func unsupportedCommandError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, UnsupportedCommandError, t.Text())
}

func missingArgumentError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, CommandArgumentError, t.Text(), "requires an argument")
}

func extraArgumentError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, CommandArgumentError, t.Text(), "does not take any arguments")
}

func unsupportedError(t *lexer.Token, feature string) *g4scope.Error {
	return tokenError(t, UnsupportedFeatureError, feature)
}

func ambiguousLiteralError(t *lexer.Token, literal, first string) *g4scope.Error {
	return tokenError(t, AmbiguousLiteralError, literal, first, t.Text())
}

func undefinedLiteralError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, UndefinedLiteralError, t.Text())
}

func emptyTokenError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, EmptyTokenError, t.Text())
}

func recursiveTokenError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, RecursiveTokenError, t.Text())
}

func invalidSetError(t *lexer.Token, reason string) *g4scope.Error {
	return tokenError(t, InvalidSetError, t.Text(), reason)
}

func emptyClosureError(t *lexer.Token, rule string) *g4scope.Error {
	return tokenError(t, EmptyClosureError, rule)
}

func leftRecursionError(t *lexer.Token, names []string) *g4scope.Error {
	return tokenError(t, LeftRecursionError, strings.Join(names, ", "))
}

func noRulesError(t *lexer.Token, grammar string) *g4scope.Error {
	return tokenError(t, NoRulesError, grammar)
}

func modeInParserError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, ModeInParserError)
}

func missingVocabularyError(t *lexer.Token, grammar string) *g4scope.Error {
	return tokenError(t, MissingVocabularyError, grammar)
}

func unknownModeError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, UnknownModeError, t.Text())
}

func unknownChannelError(t *lexer.Token) *g4scope.Error {
	return tokenError(t, UnknownChannelError, t.Text())
}

func invalidEscapeError(t *lexer.Token, seq string) *g4scope.Error {
	return tokenError(t, InvalidEscapeError, seq)
}

func parserRuleReferenceError(t *lexer.Token, rule string) *g4scope.Error {
	return tokenError(t, ParserRuleReferenceError, t.Text(), rule)
}

func lexerElementError(t *lexer.Token, what string) *g4scope.Error {
	return tokenError(t, LexerElementInParserError, what)
}

func notSetError(t *lexer.Token, rule string) *g4scope.Error {
	return tokenError(t, NotSetError, rule)
}
