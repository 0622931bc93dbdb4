// Package prompt abstracts operator input so interactive flows can be
// driven by a terminal in production and by a script in tests.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for input.
type Prompter interface {
	// Line prints the message and returns one line of input, trimmed.
	Line(msg string) (string, error)
	// YesNo prints the message and reports whether the operator answered
	// affirmatively ("y" or "yes", case-insensitive).
	YesNo(msg string) (bool, error)
}

// Terminal is a Prompter reading from an input stream and writing prompts to
// an output stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Line(msg string) (string, error) {
	fmt.Fprint(t.out, msg)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) YesNo(msg string) (bool, error) {
	line, err := t.Line(msg)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
