package meds

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	scheduledto "medtrack/internal/modules/schedule/dto"
	"medtrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type MedicationsPort interface {
	Medications(ctx context.Context) ([]scheduledto.MedicationOutput, error)
	Activate(ctx context.Context, medicationID int) (scheduledto.ToggleConditionalOutput, error)
	ResetCourse(ctx context.Context, medicationID int) (scheduledto.ResetOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Medications []scheduledto.MedicationOutput
	Err         error
}

// ActionMsg reports an activate or reset outcome to the app.
type ActionMsg struct {
	Status string
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type medItem struct {
	med scheduledto.MedicationOutput
}

func (i medItem) Title() string {
	if !i.med.Visible {
		return i.med.Name + " (hidden)"
	}
	return i.med.Name
}

func (i medItem) Description() string {
	return i.med.Dosage + "  " + strings.Join(i.med.ScheduledTimes, " ")
}

func (i medItem) FilterValue() string { return i.med.Name }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   MedicationsPort
	list   list.Model
	detail viewport.Model
	width  int
	height int
}

func New(port MedicationsPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Medications"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Padding(0, 1)

	return Model{port: port, list: l, detail: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		meds, err := m.port.Medications(context.Background())
		return LoadedMsg{Medications: meds, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Medications: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Medications))
		for i, med := range msg.Medications {
			items[i] = medItem{med: med}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case tea.KeyMsg:
		if !m.Filtering() {
			switch msg.String() {
			case "a":
				return m, m.activateCmd()
			case "r":
				return m, m.resetCourseCmd()
			}
		}
	}

	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	m.detail.SetContent(m.renderDetail())

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 4 / 10
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Width(max(m.width-listW-2, 10)).
		Height(max(m.height-2, 1)).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is open, so the app
// must not treat keystrokes as global bindings.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Selected() (scheduledto.MedicationOutput, bool) {
	if item, ok := m.list.SelectedItem().(medItem); ok {
		return item.med, true
	}
	return scheduledto.MedicationOutput{}, false
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	m.list.SetSize(listW, m.height)
	m.detail.Width = max(m.width-listW-4, 10)
	m.detail.Height = max(m.height-2, 1)
}

func (m Model) renderDetail() string {
	med, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("No medication selected")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(med.Name) + "\n\n")
	sb.WriteString(theme.Muted.Render("dosage:   ") + med.Dosage + "\n")
	sb.WriteString(theme.Muted.Render("when:     ") + med.Instruction + "\n")
	sb.WriteString(theme.Muted.Render("kind:     ") + med.Kind + "\n")
	sb.WriteString(theme.Muted.Render("times:    ") + strings.Join(med.ScheduledTimes, ", ") + "\n")
	if med.Kind == "conditional" {
		state := "inactive"
		if med.IsActive {
			state = "active"
		}
		sb.WriteString(theme.Muted.Render("state:    ") + state + "\n")
	}
	if med.DurationDays > 0 {
		course := fmt.Sprintf("%d days, %s", med.DurationDays, strings.ReplaceAll(med.CourseState, "_", " "))
		if med.CourseDay > 0 {
			course += fmt.Sprintf(" (day %d)", med.CourseDay)
		}
		sb.WriteString(theme.Muted.Render("course:   ") + course + "\n")
		if med.StartDate != "" {
			sb.WriteString(theme.Muted.Render("started:  ") + med.StartDate + "\n")
		}
	}
	if med.MaxDurationDays > 0 {
		sb.WriteString(theme.Muted.Render("max:      ") + fmt.Sprintf("%d days", med.MaxDurationDays) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("a: toggle conditional  r: reset course"))
	return sb.String()
}

func (m Model) activateCmd() tea.Cmd {
	med, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.Activate(context.Background(), med.ID)
		if err != nil {
			return ActionMsg{Err: err}
		}
		state := "paused"
		if out.IsActive {
			state = "active"
		}
		return ActionMsg{Status: fmt.Sprintf("%s %s", out.Name, state), Err: warningErr(out.Warning)}
	}
}

// resetCourseCmd runs in its own goroutine because the engine blocks on the
// confirm dialog.
func (m Model) resetCourseCmd() tea.Cmd {
	med, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.ResetCourse(context.Background(), med.ID)
		if err != nil {
			return ActionMsg{Err: err}
		}
		if !out.Applied {
			return ActionMsg{Status: "reset cancelled"}
		}
		return ActionMsg{Status: "course reset: " + med.Name, Err: warningErr(out.Warning)}
	}
}

func warningErr(w string) error {
	if w == "" {
		return nil
	}
	return fmt.Errorf("%s", w)
}
