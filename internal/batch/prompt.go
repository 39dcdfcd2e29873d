package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUserDeclined marks a product the user chose not to extract
var ErrUserDeclined = errors.New("declined by user")

// Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// LinePrompter asks on out and reads one answer line from in.
// Only "y" and "yes" (any case) confirm; end of input declines.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending holds a read abandoned by a cancelled Confirm; the next call
	// takes its answer instead of starting a second reader on in.
	pending chan answer
}

type answer struct {
	line string
	err  error
}

// NewLinePrompter creates a prompter reading answers from in
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question and waits for an answer or for ctx to end
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N] ", question)

	if p.pending == nil {
		ch := make(chan answer, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}()
		p.pending = ch
	}

	var a answer
	select {
	case a = <-p.pending:
		p.pending = nil
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	}

	if a.err != nil {
		if !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		if a.line == "" {
			fmt.Fprintln(p.out)
			return false, nil
		}
	}

	response := strings.TrimSpace(strings.ToLower(a.line))
	return response == "y" || response == "yes", nil
}

// AlwaysYes confirms every question
type AlwaysYes struct{}

// Confirm returns true
func (AlwaysYes) Confirm(context.Context, string) (bool, error) {
	return true, nil
}
