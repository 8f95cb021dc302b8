package out

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	scheduleout "medtrack/internal/modules/schedule/port/out"
)

// PromptConfirmer asks on a terminal and accepts "y" or "yes". Anything else,
// including EOF, is a no.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) scheduleout.Confirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *PromptConfirmer) Confirm(ctx context.Context, message string) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(c.out, "%s [y/N] ", message)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// AutoConfirmer answers every question with the same value; --yes wires it
// with true.
type AutoConfirmer struct {
	Answer bool
}

func (c AutoConfirmer) Confirm(context.Context, string) bool {
	return c.Answer
}
