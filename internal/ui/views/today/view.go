package today

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	scheduledto "medtrack/internal/modules/schedule/dto"
	"medtrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type SchedulePort interface {
	Today(ctx context.Context) (scheduledto.TodayOutput, error)
	Take(ctx context.Context, medicationID int, slot string) (scheduledto.ToggleTakenOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Today scheduledto.TodayOutput
	Err   error
}

// ToggledMsg bubbles up to the app so it can report the outcome.
type ToggledMsg struct {
	Out scheduledto.ToggleTakenOutput
	Err error
}

// ─── model ───────────────────────────────────────────────────────────────────

// cell addresses one dose chip: entry index and slot index.
type cell struct{ entry, slot int }

type Model struct {
	port    SchedulePort
	today   scheduledto.TodayOutput
	cells   []cell
	cursor  int
	body    viewport.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port SchedulePort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{
		port:    port,
		body:    viewport.New(0, 0),
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads today's schedule.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Today(context.Background())
		return LoadedMsg{Today: out, Err: err}
	}
}

// ToggleSelected takes or undoes the dose under the cursor.
func (m Model) ToggleSelected() tea.Cmd {
	id, slot, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.Take(context.Background(), id, slot)
		return ToggledMsg{Out: out, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width
		m.body.Height = max(msg.Height-2, 1)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			selected, hadSelection := m.selectedCell()
			m.today = msg.Today
			m.cells = nil
			for i, e := range m.today.Entries {
				for j := range e.Slots {
					m.cells = append(m.cells, cell{entry: i, slot: j})
				}
			}
			m.cursor = 0
			if hadSelection {
				m.restoreCursor(selected)
			}
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "down", "j", "right", "l":
			if m.cursor < len(m.cells)-1 {
				m.cursor++
			}
		case "up", "k", "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter", " ", "x":
			return m, m.ToggleSelected()
		}
	}

	m.body.SetContent(m.render())
	m.scrollToCursor()
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading today…")
	}
	header := m.renderHeader()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.body.View())
}

// Selected returns the medication and slot under the cursor.
func (m Model) Selected() (int, string, bool) {
	c, ok := m.selectedCell()
	if !ok {
		return 0, "", false
	}
	entry := m.today.Entries[c.entry]
	return entry.Medication.ID, entry.Slots[c.slot].Time, true
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) selectedCell() (cell, bool) {
	if m.cursor < 0 || m.cursor >= len(m.cells) {
		return cell{}, false
	}
	return m.cells[m.cursor], true
}

func (m *Model) restoreCursor(c cell) {
	for i, candidate := range m.cells {
		if candidate == c {
			m.cursor = i
			return
		}
	}
}

func (m *Model) scrollToCursor() {
	c, ok := m.selectedCell()
	if !ok {
		return
	}
	// Cards hold three lines, an optional footer and two border rows.
	line := 0
	for i := 0; i < c.entry; i++ {
		line += cardHeight(m.today.Entries[i])
	}
	if line < m.body.YOffset {
		m.body.SetYOffset(line)
	} else if bottom := line + cardHeight(m.today.Entries[c.entry]); bottom > m.body.YOffset+m.body.Height {
		m.body.SetYOffset(bottom - m.body.Height)
	}
}

func cardHeight(e scheduledto.TodayEntry) int {
	h := 3 + 2
	if e.Footer != "" {
		h++
	}
	return h
}

func (m Model) renderHeader() string {
	if m.err != nil {
		return theme.Warning.Render("today: " + m.err.Error())
	}
	progress := fmt.Sprintf("%d/%d taken", m.today.Taken, m.today.Total)
	return theme.Title.Render("Today "+m.today.Day) + "  " + theme.Muted.Render(progress) + "\n"
}

func (m Model) render() string {
	if m.today.EmptyHint != "" {
		return theme.Muted.Render(m.today.EmptyHint)
	}
	selected, hasSelection := m.selectedCell()
	cardW := max(m.width-2, 24)
	var sb strings.Builder
	for i, e := range m.today.Entries {
		var chips []string
		for j, s := range e.Slots {
			chip := renderChip(s)
			if hasSelection && selected == (cell{entry: i, slot: j}) {
				chip = theme.Cursor.Render(chip)
			}
			chips = append(chips, chip)
		}
		lines := []string{
			theme.Title.Render(e.Medication.Name) + "  " + e.Medication.Dosage,
			theme.Muted.Render(e.Medication.Instruction),
			strings.Join(chips, "  "),
		}
		if e.Footer != "" {
			lines = append(lines, theme.Muted.Render(e.Footer))
		}
		style := theme.Card
		if hasSelection && selected.entry == i {
			style = theme.CardSelected
		}
		sb.WriteString(style.Width(cardW).Render(strings.Join(lines, "\n")) + "\n")
	}
	return sb.String()
}

func renderChip(s scheduledto.SlotOutput) string {
	switch {
	case s.Taken:
		return theme.Taken.Render("[x] " + s.Time + " (" + s.TakenAt + ")")
	case s.Overdue:
		return theme.Overdue.Render("[ ] " + s.Time + " due")
	default:
		return theme.Pending.Render("[ ] " + s.Time)
	}
}
