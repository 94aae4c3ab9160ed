// Package prompt collects command arguments interactively when they were not
// passed on the command line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"tors/internal/utils"
)

// Sentinel errors for prompt operations.
var (
	ErrNoPromptMode = errors.New("interactive prompts disabled (--no-prompt)")
	ErrNoInput      = errors.New("no input received")
)

// Question is one argument a command may prompt for
type Question struct {
	Name  string // argument name used in error messages
	Label string // text printed before reading, e.g. "Enter task name:"
}

// Prompter reads answers line by line from Reader
type Prompter struct {
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool

	scanner *bufio.Scanner
}

// New creates a prompter. Prompts are disabled when noPrompt is set or the
// reader is a file that is not a terminal.
func New(r io.Reader, w io.Writer, noPrompt bool) *Prompter {
	return &Prompter{
		Reader:   r,
		Writer:   w,
		NoPrompt: noPrompt || !Interactive(r),
	}
}

// Interactive reports whether r can answer prompts. Files must be terminals;
// any other reader is an input source supplied on purpose.
func Interactive(r io.Reader) bool {
	if r == nil {
		return false
	}
	if f, ok := r.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return true
}

// Ask prints label and returns the next line with surrounding whitespace
// removed. An empty line is a valid answer.
func (p *Prompter) Ask(label string) (string, error) {
	if p.NoPrompt {
		return "", ErrNoPromptMode
	}
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.Reader)
	}

	writer := p.Writer
	if writer == nil {
		writer = io.Discard
	}
	_, _ = fmt.Fprintln(writer, label)

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Fill returns one value per question, taking args in order and prompting
// for the rest. Extra args are ignored.
func (p *Prompter) Fill(args []string, questions ...Question) ([]string, error) {
	values := make([]string, len(questions))
	for i, q := range questions {
		if i < len(args) {
			values[i] = args[i]
			continue
		}
		answer, err := p.Ask(q.Label)
		if err != nil {
			if errors.Is(err, ErrNoPromptMode) || errors.Is(err, ErrNoInput) {
				return nil, utils.ErrMissingArgument(q.Name)
			}
			return nil, err
		}
		values[i] = answer
	}
	return values, nil
}
