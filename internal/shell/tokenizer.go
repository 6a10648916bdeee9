package shell

import (
	"errors"
	"strings"
)

// Token is one word or operator of a command line
type Token struct {
	Value string
	Type  TokenType
}

type TokenType int

const (
	TokenWord              TokenType = iota
	TokenRedirectOut                 // >
	TokenRedirectAppend              // >>
	TokenRedirectErr                 // 2>
	TokenRedirectErrAppend           // 2>>
	TokenRedirectErrToOut            // 2>&1
	TokenAnd                         // &&
	TokenOr                          // ||
	TokenSemicolon                   // ;
)

type operator struct {
	text string
	typ  TokenType
	// only recognized at the start of a word, so "week2>x" stays "week2" > "x"
	wordStart bool
}

// operators in longest-first order
var operators = []operator{
	{"2>&1", TokenRedirectErrToOut, true},
	{"2>>", TokenRedirectErrAppend, true},
	{"2>", TokenRedirectErr, true},
	{"&&", TokenAnd, false},
	{"||", TokenOr, false},
	{">>", TokenRedirectAppend, false},
	{">", TokenRedirectOut, false},
	{";", TokenSemicolon, false},
}

var (
	errPipe          = errors.New("syntax error: pipes are not supported")
	errInput         = errors.New("syntax error: input redirection is not supported")
	errSingleQuote   = errors.New("syntax error: unclosed single quote")
	errDoubleQuote   = errors.New("syntax error: unclosed double quote")
	errTrailingSlash = errors.New("syntax error: trailing backslash")
)

// Tokenize splits a command line into words and operators. Quoting follows
// POSIX shells: nothing is special inside '...', and inside "..." a
// backslash only escapes " \ $ and `.
func Tokenize(line string) ([]Token, error) {
	var (
		tokens  []Token
		word    strings.Builder
		started bool // quotes make an empty word count
	)
	flush := func() {
		if started || word.Len() > 0 {
			tokens = append(tokens, Token{Value: word.String(), Type: TokenWord})
		}
		word.Reset()
		started = false
	}

	for i := 0; i < len(line); {
		c := line[i]

		if op, ok := matchOperator(line[i:], !started && word.Len() == 0); ok {
			flush()
			tokens = append(tokens, Token{Value: op.text, Type: op.typ})
			i += len(op.text)
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			flush()
			i++
		case '|':
			return nil, errPipe
		case '<':
			return nil, errInput
		case '\\':
			if i+1 >= len(line) {
				return nil, errTrailingSlash
			}
			word.WriteByte(line[i+1])
			started = true
			i += 2
		case '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, errSingleQuote
			}
			word.WriteString(line[i+1 : i+1+end])
			started = true
			i += end + 2
		case '"':
			n, err := readDoubleQuoted(line[i+1:], &word)
			if err != nil {
				return nil, err
			}
			started = true
			i += n + 2
		default:
			word.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens, nil
}

func matchOperator(rest string, atWordStart bool) (operator, bool) {
	for _, op := range operators {
		if op.wordStart && !atWordStart {
			continue
		}
		if strings.HasPrefix(rest, op.text) {
			return op, true
		}
	}
	return operator{}, false
}

// readDoubleQuoted copies the quoted text after an opening " into w and
// returns how many bytes it consumed, not counting the closing quote.
func readDoubleQuoted(s string, w *strings.Builder) (int, error) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return i, nil
		case '\\':
			if i+1 < len(s) && strings.IndexByte("\"\\$`", s[i+1]) >= 0 {
				i++
			}
		}
		w.WriteByte(s[i])
	}
	return 0, errDoubleQuote
}

// ChainOperator joins two commands of a chain
type ChainOperator int

const (
	ChainNone ChainOperator = iota
	ChainAnd                // &&
	ChainOr                 // ||
	ChainSeq                // ;
)

var chainOperators = map[TokenType]ChainOperator{
	TokenAnd:       ChainAnd,
	TokenOr:        ChainOr,
	TokenSemicolon: ChainSeq,
}

// ChainedCommand is one command's tokens with the operator that follows it
type ChainedCommand struct {
	Tokens   []Token
	Operator ChainOperator
}

// SplitByChain cuts tokens at &&, || and ;. The last command carries
// ChainNone; a trailing operator leaves an empty last command.
func SplitByChain(tokens []Token) []ChainedCommand {
	var cmds []ChainedCommand
	start := 0
	for i, tok := range tokens {
		if op, ok := chainOperators[tok.Type]; ok {
			cmds = append(cmds, ChainedCommand{Tokens: tokens[start:i:i], Operator: op})
			start = i + 1
		}
	}
	if start < len(tokens) || len(cmds) > 0 {
		cmds = append(cmds, ChainedCommand{Tokens: tokens[start:], Operator: ChainNone})
	}
	return cmds
}
