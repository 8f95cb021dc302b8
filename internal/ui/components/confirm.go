package components

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"medtrack/internal/ui/theme"
)

// ConfirmRequestMsg carries a pending question from a blocked command
// goroutine to the UI loop.
type ConfirmRequestMsg struct {
	Message string
	reply   chan<- bool
}

// Answer releases the goroutine waiting in ConfirmBroker.Confirm.
func (r ConfirmRequestMsg) Answer(yes bool) {
	if r.reply == nil {
		return
	}
	select {
	case r.reply <- yes:
	default:
	}
}

type confirmRequest struct {
	message string
	reply   chan bool
}

// ConfirmBroker lets code running inside a tea.Cmd ask the user a yes/no
// question. Confirm blocks its caller until the dialog is answered, ctx is
// done or the broker is closed; an unanswered question counts as declined.
type ConfirmBroker struct {
	requests chan confirmRequest
	done     chan struct{}
	once     sync.Once
}

func NewConfirmBroker() *ConfirmBroker {
	return &ConfirmBroker{requests: make(chan confirmRequest), done: make(chan struct{})}
}

func (b *ConfirmBroker) Confirm(ctx context.Context, message string) bool {
	req := confirmRequest{message: message, reply: make(chan bool, 1)}
	select {
	case b.requests <- req:
	case <-ctx.Done():
		return false
	case <-b.done:
		return false
	}
	select {
	case yes := <-req.reply:
		return yes
	case <-ctx.Done():
		return false
	case <-b.done:
		return false
	}
}

// Close declines every pending and future question. Once the program has
// exited nobody is left to answer, and a caller blocked in Confirm may be
// holding the engine lock.
func (b *ConfirmBroker) Close() {
	b.once.Do(func() { close(b.done) })
}

// Wait returns a command that yields the next question. The UI must issue it
// again after handling each ConfirmRequestMsg.
func (b *ConfirmBroker) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-b.requests:
			return ConfirmRequestMsg{Message: req.message, reply: req.reply}
		case <-b.done:
			return nil
		}
	}
}

// ConfirmAnsweredMsg is emitted once the dialog closes.
type ConfirmAnsweredMsg struct{ Yes bool }

// ConfirmDialog renders the question in front of the active view.
type ConfirmDialog struct {
	pending ConfirmRequestMsg
	visible bool
	width   int
}

func (d ConfirmDialog) Visible() bool { return d.visible }

func (d *ConfirmDialog) Open(req ConfirmRequestMsg) {
	d.pending = req
	d.visible = true
}

func (d *ConfirmDialog) SetWidth(w int) { d.width = w }

func (d ConfirmDialog) Update(msg tea.Msg) (ConfirmDialog, tea.Cmd) {
	if !d.visible {
		return d, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}
	var yes bool
	switch key.String() {
	case "y", "Y":
		yes = true
	case "n", "N", "esc", "enter", "ctrl+c":
		yes = false
	default:
		return d, nil
	}
	d.pending.Answer(yes)
	d.pending = ConfirmRequestMsg{}
	d.visible = false
	return d, func() tea.Msg { return ConfirmAnsweredMsg{Yes: yes} }
}

func (d ConfirmDialog) View() string {
	if !d.visible {
		return ""
	}
	w := d.width
	if w < 20 {
		w = 56
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.Hot.Render("Confirm"),
		"",
		d.pending.Message,
		"",
		theme.Muted.Render("y: yes   n/esc: no"),
	)
	return theme.Dialog.Width(w - 4).Render(body)
}
