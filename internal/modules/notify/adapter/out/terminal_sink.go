package out

import (
	"context"
	"fmt"
	"io"
	"sync"

	"medtrack/internal/modules/notify/domain"
	notifyout "medtrack/internal/modules/notify/port/out"
)

// TerminalSink prints notifications to a terminal, ringing the bell first.
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalSink(out io.Writer) notifyout.Sink {
	return &TerminalSink{out: out}
}

func (s *TerminalSink) Deliver(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("\a[%s] %s", n.CreatedAt.Format("15:04"), n.Title)
	if n.Body != "" {
		line += ": " + n.Body
	}
	if _, err := fmt.Fprintln(s.out, line); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
