package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gYonder/genai-shell/internal/commands"
	"github.com/gYonder/genai-shell/internal/session"
)

// CommandChain represents a sequence of commands connected by &&, ||, or ;
type CommandChain struct {
	Commands []ChainedSegment
}

// ChainedSegment is a command with the operator connecting it to the next one
type ChainedSegment struct {
	Segment  *Segment
	Operator ChainOperator // operator AFTER this command
}

// Segment is a single command with optional output redirection to local files.
type Segment struct {
	Args         []string
	CommandName  string
	OutputFile   string // > or >> file
	ErrorFile    string // 2> or 2>> file
	AppendOutput bool   // >> instead of >
	AppendError  bool   // 2>> instead of 2>
	MergeStderr  bool   // 2>&1
}

// ParseCommandChain parses a command line into a CommandChain structure.
// It returns nil for a blank line.
func ParseCommandChain(line string) (*CommandChain, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	chain := &CommandChain{}
	for _, cc := range SplitByChain(tokens) {
		if len(cc.Tokens) == 0 {
			if cc.Operator == ChainAnd || cc.Operator == ChainOr {
				return nil, fmt.Errorf("syntax error: missing command before operator")
			}
			continue
		}

		seg, err := parseSegment(cc.Tokens)
		if err != nil {
			return nil, err
		}
		chain.Commands = append(chain.Commands, ChainedSegment{Segment: seg, Operator: cc.Operator})
	}

	if len(chain.Commands) == 0 {
		return nil, nil
	}
	return chain, nil
}

// parseSegment extracts command, args, and redirections from tokens.
func parseSegment(tokens []Token) (*Segment, error) {
	seg := &Segment{}
	var words []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.Type {
		case TokenWord:
			words = append(words, tok.Value)

		case TokenRedirectOut, TokenRedirectAppend:
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.OutputFile = file
			seg.AppendOutput = tok.Type == TokenRedirectAppend
			i++

		case TokenRedirectErr, TokenRedirectErrAppend:
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.ErrorFile = file
			seg.AppendError = tok.Type == TokenRedirectErrAppend
			i++

		case TokenRedirectErrToOut:
			seg.MergeStderr = true
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("syntax error: empty command")
	}

	seg.CommandName = words[0]
	seg.Args = words[1:]
	return seg, nil
}

func expectFilename(tokens []Token, i int, op string) (string, error) {
	if i+1 >= len(tokens) || tokens[i+1].Type != TokenWord {
		return "", fmt.Errorf("syntax error: missing filename after '%s'", op)
	}
	return tokens[i+1].Value, nil
}

// Execute runs the chain with base as the default stdio, respecting &&, || and
// ; semantics. commands.ErrExit stops the chain and is returned as is.
func (c *CommandChain) Execute(ctx context.Context, sess *session.Session, base *commands.ExecutionEnv) error {
	if c == nil || len(c.Commands) == 0 {
		return nil
	}

	var lastErr error
	for i, cs := range c.Commands {
		shouldRun := true
		if i > 0 {
			switch c.Commands[i-1].Operator {
			case ChainAnd:
				shouldRun = lastErr == nil
			case ChainOr:
				shouldRun = lastErr != nil
			}
		}
		if !shouldRun {
			continue
		}

		lastErr = cs.Segment.Execute(ctx, sess, base)
		if errors.Is(lastErr, commands.ErrExit) {
			return lastErr
		}
		// Errors of commands that are not last are reported here, the final
		// one is left to the caller.
		if lastErr != nil && i < len(c.Commands)-1 {
			fmt.Fprintf(base.Stderr, "genai: %v\n", lastErr)
		}
	}
	return lastErr
}

// Execute runs one command with its redirections applied.
func (seg *Segment) Execute(ctx context.Context, sess *session.Session, base *commands.ExecutionEnv) error {
	cmd, ok := commands.Get(seg.CommandName)
	if !ok {
		return fmt.Errorf("command not found: %s", seg.CommandName)
	}

	env, closers, err := setupRedirection(seg, base)
	if err != nil {
		return err
	}

	var runErr error
	if commands.HasHelpFlag(seg.Args) {
		commands.PrintUsage(cmd, env.Stdout)
	} else {
		runErr = cmd.Run(ctx, sess, env, seg.Args)
	}

	closeErr := closeAll(closers)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// setupRedirection derives the command's env from base and the segment's
// redirections.
func setupRedirection(seg *Segment, base *commands.ExecutionEnv) (*commands.ExecutionEnv, []io.Closer, error) {
	env := &commands.ExecutionEnv{Stdin: base.Stdin, Stdout: base.Stdout, Stderr: base.Stderr}
	var closers []io.Closer

	if seg.OutputFile != "" {
		w, err := openOutput(seg.OutputFile, seg.AppendOutput)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", seg.OutputFile, err)
		}
		closers = append(closers, w)
		env.Stdout = w
	}

	if seg.MergeStderr {
		env.Stderr = env.Stdout
	} else if seg.ErrorFile != "" {
		w, err := openOutput(seg.ErrorFile, seg.AppendError)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("%s: %v", seg.ErrorFile, err)
		}
		closers = append(closers, w)
		env.Stderr = w
	}

	return env, closers, nil
}

// openOutput opens a local file for writing, handling /dev/null on every platform.
func openOutput(path string, appendMode bool) (io.WriteCloser, error) {
	if path == "/dev/null" {
		return devNull{}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0644)
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }
func (devNull) Close() error                { return nil }

// closeAll closes all closers and returns the first error encountered.
func closeAll(closers []io.Closer) error {
	var firstErr error
	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
