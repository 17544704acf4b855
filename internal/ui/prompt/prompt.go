// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Prompter interface {
	// Confirm succeeds only when the user types expectedValue exactly
	Confirm(message string, expectedValue string) (bool, error)
}

// StandardPrompter reads answers line by line. One buffered reader is kept for the
// prompter's lifetime so consecutive prompts fed from a pipe see every line
type StandardPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "To confirm, please type the name '%s': ", expectedValue)

	input, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("error reading user input: %w", err)
	}
	// A final answer without a trailing newline still counts; plain EOF declines
	if errors.Is(err, io.EOF) && input == "" {
		fmt.Fprintln(p.writer)
		return false, nil
	}

	return strings.TrimSpace(input) == expectedValue, nil
}

// PublishConfirmer asks before each module upload, requiring the module name as the answer.
// The returned function matches service.ConfirmFunc
func PublishConfirmer(p Prompter) func(module string, version int) (bool, error) {
	return func(module string, version int) (bool, error) {
		message := fmt.Sprintf("Module '%s' has changes and will be published as version %d.", module, version)
		return p.Confirm(message, module)
	}
}
