package out

import (
	"context"
	"fmt"

	"medtrack/internal/modules/notify/domain"
	"medtrack/internal/modules/notify/dto"
)

// ChannelSink hands notifications to an in-process consumer such as the TUI.
// Deliver fails instead of blocking when the buffer is full.
type ChannelSink struct {
	ch chan dto.Notification
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{ch: make(chan dto.Notification, buffer)}
}

func (s *ChannelSink) Deliver(ctx context.Context, n domain.Notification) error {
	item := dto.Notification{ID: n.ID, Title: n.Title, Body: n.Body, Tag: n.Tag, At: n.CreatedAt}
	select {
	case s.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("notification buffer full")
	}
}

func (s *ChannelSink) Notifications() <-chan dto.Notification {
	return s.ch
}
