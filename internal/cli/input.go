package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type lineResult struct {
	line string
	err  error
}

// readLine reads one line, trimmed. It returns early with ctx.Err() when ctx
// is done; the pending read then finishes in the background. A final line
// without a newline is returned before io.EOF.
func (s *Shell) readLine(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := s.in.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- lineResult{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// prompt prints label and reads the answer.
//
//	Label
//	> _
func (s *Shell) prompt(ctx context.Context, label string) (string, error) {
	s.printf("%s\n> ", label)
	return s.readLine(ctx)
}

// promptRequired is prompt that rejects a blank answer.
func (s *Shell) promptRequired(ctx context.Context, label string) (string, error) {
	v, err := s.prompt(ctx, label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s must not be empty", strings.ToLower(label))
	}
	return v, nil
}

// promptPassword reads a password without echo when stdin is a terminal and
// as a plain line otherwise.
func (s *Shell) promptPassword(ctx context.Context) (string, error) {
	s.printf("Password: ")

	fd := int(os.Stdin.Fd())
	if s.stdinIsTTY && isTerminal(fd) {
		pw, err := readPassword(fd)
		s.println()
		if err != nil {
			return "", err
		}
		if len(pw) == 0 {
			return "", errors.New("password must not be empty")
		}
		return string(pw), nil
	}

	pw, err := s.readLine(ctx)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}
