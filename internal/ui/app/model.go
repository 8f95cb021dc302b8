package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	notifydto "medtrack/internal/modules/notify/dto"
	scheduledto "medtrack/internal/modules/schedule/dto"
	"medtrack/internal/ui/components"
	"medtrack/internal/ui/theme"
	medsview "medtrack/internal/ui/views/meds"
	todayview "medtrack/internal/ui/views/today"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type schedulePort interface {
	Today(ctx context.Context) (scheduledto.TodayOutput, error)
	Medications(ctx context.Context) ([]scheduledto.MedicationOutput, error)
	Take(ctx context.Context, medicationID int, slot string) (scheduledto.ToggleTakenOutput, error)
	Activate(ctx context.Context, medicationID int) (scheduledto.ToggleConditionalOutput, error)
	ResetCourse(ctx context.Context, medicationID int) (scheduledto.ResetOutput, error)
	ResetToday(ctx context.Context) (scheduledto.ResetOutput, error)
	Sweep(ctx context.Context) (scheduledto.SweepOutput, error)
	Note(ctx context.Context) (scheduledto.NoteOutput, error)
	Add(ctx context.Context, input scheduledto.AddMedicationInput) (scheduledto.MedicationOutput, error)
	Flush(ctx context.Context) error
}

type notifyPort interface {
	Status(ctx context.Context) (notifydto.StatusOutput, error)
	Enable(ctx context.Context) (notifydto.PermissionOutput, error)
	Disable(ctx context.Context) (notifydto.PermissionOutput, error)
	Test(ctx context.Context) (notifydto.ShowOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabToday tabID = iota
	tabMeds
	tabCount
)

var tabLabels = [tabCount]string{"Today", "Medications"}

const bannerTTL = 8 * time.Second

// ─── async messages ───────────────────────────────────────────────────────────

type sweepTickMsg time.Time

type sweptMsg struct {
	out scheduledto.SweepOutput
	err error
}

type notificationMsg struct{ n notifydto.Notification }

type bannerExpiredMsg struct{ id string }

// actionDoneMsg reports palette and shortcut commands that change state.
type actionDoneMsg struct {
	status string
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab        key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Activate   key.Binding
	Reset      key.Binding
	ResetToday key.Binding
	Sweep      key.Binding
	Note       key.Binding
	Help       key.Binding
	Palette    key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous dose")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next dose")),
		Toggle:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "take/undo")),
		Activate:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle conditional")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset course")),
		ResetToday: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset today")),
		Sweep:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "check reminders")),
		Note:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "write day note")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Up, k.Down, k.Toggle},
		{k.Activate, k.Reset, k.ResetToday},
		{k.Sweep, k.Note, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

type Options struct {
	SweepInterval time.Duration
	Confirm       *components.ConfirmBroker
	Notifications <-chan notifydto.Notification
}

// Model is the root Bubble Tea model. It owns tab routing, the periodic
// reminder sweep, the confirm dialog and the notification banner.
type Model struct {
	schedule schedulePort
	notify   notifyPort
	opts     Options

	todayView todayview.Model
	medsView  medsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	dialog    components.ConfirmDialog
	banner    *notifydto.Notification
	status    string
	width     int
	height    int
}

func NewModel(schedule schedulePort, notify notifyPort, opts Options) Model {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	return Model{
		schedule:  schedule,
		notify:    notify,
		opts:      opts,
		todayView: todayview.New(schedule),
		medsView:  medsview.New(schedule),
		activeTab: tabToday,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.todayView.Init(),
		m.medsView.Init(),
		m.scheduleSweep(),
		m.waitNotification(),
	}
	if m.opts.Confirm != nil {
		cmds = append(cmds, m.opts.Confirm.Wait())
	}
	return tea.Batch(cmds...)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// A pending question blocks an engine call; answer it first.
	if m.dialog.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.dialog, cmd = m.dialog.Update(msg)
			return m, cmd
		}
	}
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.dialog.SetWidth(min(m.width-4, 64))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case sweepTickMsg:
		return m, tea.Batch(m.sweepCmd(), m.scheduleSweep())

	case sweptMsg:
		if msg.err != nil {
			m.status = "sweep: " + msg.err.Error()
			return m, nil
		}
		if len(msg.out.Due) > 0 {
			m.status = fmt.Sprintf("%d dose(s) due, %d notified", len(msg.out.Due), msg.out.Delivered)
			return m, m.todayView.Refresh()
		}
		return m, nil

	case notificationMsg:
		n := msg.n
		m.banner = &n
		id := n.ID
		return m, tea.Batch(
			m.waitNotification(),
			tea.Tick(bannerTTL, func(time.Time) tea.Msg { return bannerExpiredMsg{id: id} }),
		)

	case bannerExpiredMsg:
		if m.banner != nil && m.banner.ID == msg.id {
			m.banner = nil
		}
		return m, nil

	case components.ConfirmRequestMsg:
		m.dialog.Open(msg)
		return m, m.opts.Confirm.Wait()

	case components.ConfirmAnsweredMsg:
		return m, nil

	case todayview.ToggledMsg:
		switch {
		case msg.Err != nil:
			m.status = "take: " + msg.Err.Error()
		case msg.Out.Declined:
			m.status = "kept as taken"
		case msg.Out.Taken:
			m.status = fmt.Sprintf("%s %s taken at %s", msg.Out.Name, msg.Out.Slot, msg.Out.TakenAt)
		default:
			m.status = fmt.Sprintf("%s %s marked not taken", msg.Out.Name, msg.Out.Slot)
		}
		if msg.Out.Warning != "" {
			m.status += " (" + msg.Out.Warning + ")"
		}
		return m, m.refreshAll()

	case medsview.ActionMsg:
		m.status = describe(msg.Status, msg.Err)
		return m, m.refreshAll()

	case actionDoneMsg:
		m.status = describe(msg.status, msg.err)
		return m, m.refreshAll()

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabMeds && m.medsView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "R":
			return m, m.resetTodayCmd()
		case "s":
			return m, m.sweepCmd()
		case "n":
			return m, m.noteCmd()
		}
	}

	// Loaded messages go to their own view regardless of the active tab.
	switch msg.(type) {
	case todayview.LoadedMsg:
		var cmd tea.Cmd
		m.todayView, cmd = m.todayView.Update(msg)
		return m, cmd
	case medsview.LoadedMsg:
		var cmd tea.Cmd
		m.medsView, cmd = m.medsView.Update(msg)
		return m, cmd
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabToday:
		m.todayView, tabCmd = m.todayView.Update(msg)
	case tabMeds:
		m.medsView, tabCmd = m.medsView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	bannerBar := m.renderBanner()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if bannerBar != "" {
		contentH -= lipgloss.Height(bannerBar)
	}
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.dialog.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.dialog.View())
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabMeds:
		content = m.medsView.View()
	default:
		content = m.todayView.View()
	}

	parts := []string{tabBar}
	if bannerBar != "" {
		parts = append(parts, bannerBar)
	}
	parts = append(parts, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "medtrack  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderBanner() string {
	if m.banner == nil {
		return ""
	}
	text := theme.Title.Render(m.banner.Title)
	if m.banner.Body != "" {
		text += "  " + m.banner.Body
	}
	return theme.Banner.Width(max(m.width-2, 20)).Render(text)
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  :command  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "take":
		if len(parts) < 3 {
			m.status = "usage: take <id> <HH:MM>"
			return m, nil
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			m.status = "invalid medication id"
			return m, nil
		}
		return m, m.takeCmd(id, parts[2])

	case "activate", "reset-course":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <id>"
			return m, nil
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			m.status = "invalid medication id"
			return m, nil
		}
		if parts[0] == "activate" {
			return m, m.activateCmd(id)
		}
		return m, m.resetCourseCmd(id)

	case "reset-today":
		return m, m.resetTodayCmd()

	case "sweep":
		return m, m.sweepCmd()

	case "note":
		return m, m.noteCmd()

	case "add":
		name := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		return m, m.addCmd(name)

	case "notify:enable", "notify:disable", "notify:test", "notify:status":
		return m, m.notifyCmd(parts[0])

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	h := m.height - 4
	if m.banner != nil {
		h -= 3
	}
	sz := tea.WindowSizeMsg{Width: m.width, Height: max(h, 1)}
	m.todayView, _ = m.todayView.Update(sz)
	m.medsView, _ = m.medsView.Update(sz)
}

func (m Model) refreshAll() tea.Cmd {
	return tea.Batch(m.todayView.Refresh(), m.medsView.Refresh())
}

func describe(status string, err error) string {
	switch {
	case err != nil && status != "":
		return status + " (" + err.Error() + ")"
	case err != nil:
		return "error: " + err.Error()
	default:
		return status
	}
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) scheduleSweep() tea.Cmd {
	return tea.Tick(m.opts.SweepInterval, func(t time.Time) tea.Msg { return sweepTickMsg(t) })
}

func (m Model) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.schedule.Sweep(ctx)
		if err == nil {
			err = m.schedule.Flush(ctx)
			if err != nil {
				return sweptMsg{out: out, err: fmt.Errorf("retry save: %w", err)}
			}
		}
		return sweptMsg{out: out, err: err}
	}
}

func (m Model) waitNotification() tea.Cmd {
	if m.opts.Notifications == nil {
		return nil
	}
	ch := m.opts.Notifications
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

func (m Model) takeCmd(id int, slot string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.schedule.Take(context.Background(), id, slot)
		return todayview.ToggledMsg{Out: out, Err: err}
	}
}

func (m Model) activateCmd(id int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.schedule.Activate(context.Background(), id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		state := "paused"
		if out.IsActive {
			state = "active"
		}
		return actionDoneMsg{status: out.Name + " " + state, err: warning(out.Warning)}
	}
}

func (m Model) resetCourseCmd(id int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.schedule.ResetCourse(context.Background(), id)
		return resetDone("course reset", out, err)
	}
}

func (m Model) resetTodayCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.schedule.ResetToday(context.Background())
		return resetDone(fmt.Sprintf("today reset, %d mark(s) cleared", out.Cleared), out, err)
	}
}

func resetDone(status string, out scheduledto.ResetOutput, err error) tea.Msg {
	if err != nil {
		return actionDoneMsg{err: err}
	}
	if !out.Applied {
		return actionDoneMsg{status: "reset cancelled"}
	}
	return actionDoneMsg{status: status, err: warning(out.Warning)}
}

func (m Model) noteCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.schedule.Note(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "day note written: " + out.Path}
	}
}

func (m Model) addCmd(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.schedule.Add(context.Background(), scheduledto.AddMedicationInput{Name: name})
		return actionDoneMsg{err: err}
	}
}

func (m Model) notifyCmd(command string) tea.Cmd {
	return func() tea.Msg {
		if m.notify == nil {
			return actionDoneMsg{status: "notifications are not configured"}
		}
		ctx := context.Background()
		switch command {
		case "notify:enable":
			out, err := m.notify.Enable(ctx)
			return actionDoneMsg{status: "notifications: " + out.Permission, err: err}
		case "notify:disable":
			out, err := m.notify.Disable(ctx)
			return actionDoneMsg{status: "notifications: " + out.Permission, err: err}
		case "notify:test":
			out, err := m.notify.Test(ctx)
			if out.Collapsed {
				return actionDoneMsg{status: "test notification collapsed", err: err}
			}
			return actionDoneMsg{status: "test notification sent via " + out.Channel, err: err}
		default:
			out, err := m.notify.Status(ctx)
			return actionDoneMsg{status: fmt.Sprintf("notifications: %s, %d notifier(s)", out.Permission, len(out.Notifiers)), err: err}
		}
	}
}

func warning(w string) error {
	if w == "" {
		return nil
	}
	return fmt.Errorf("%s", w)
}
