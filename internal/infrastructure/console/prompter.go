package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// Prompter asks the person at the terminal to take over.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// WaitForUser returns once a line is read or ctx ends.
func (p *Prompter) WaitForUser(ctx context.Context, message string) error {
	if message == "" {
		message = "Your turn in the browser."
	}
	fmt.Fprintf(p.out, "\n[USER ACTION REQUIRED] %s\n", message)
	fmt.Fprint(p.out, "Press Enter when done...")

	done := make(chan error, 1)
	go func() {
		_, err := p.in.ReadString('\n')
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to wait for user: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
