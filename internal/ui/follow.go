package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/architect-xyz/logterm/internal/render"
	"github.com/architect-xyz/logterm/internal/session"
)

// TailMsg carries freshly streamed display lines
type TailMsg []string

// DoneMsg signals the server ended the tail
type DoneMsg struct{}

// ErrMsg carries a transport or protocol failure
type ErrMsg struct{ Err error }

// Event converts one raw protocol message into a UI message. Messages
// that are not tail traffic (the initial ack, unrelated responses)
// map to nil and are ignored.
func Event(raw string, renderer render.Renderer) tea.Msg {
	var note session.Notification
	if err := json.Unmarshal([]byte(raw), &note); err != nil {
		return ErrMsg{Err: fmt.Errorf("decode message: %w", err)}
	}
	switch note.Method {
	case session.MethodTail:
		data, err := json.Marshal(note.Params)
		if err != nil {
			return ErrMsg{Err: err}
		}
		var params session.TailParams
		if err := json.Unmarshal(data, &params); err != nil {
			return ErrMsg{Err: fmt.Errorf("decode tail params: %w", err)}
		}
		rows := make(TailMsg, 0, len(params.DisplayLines))
		for _, line := range params.DisplayLines {
			rows = append(rows, renderer.Render(line))
		}
		return rows
	case session.MethodDone:
		return DoneMsg{}
	default:
		return nil
	}
}

// FollowModel is the live-tail view
type FollowModel struct {
	viewport viewport.Model
	events   <-chan tea.Msg

	logFile string
	rows    []string
	width   int
	height  int
	ready   bool

	done bool
	err  error
}

// NewFollowModel creates a follow view fed by events
func NewFollowModel(logFile string, events <-chan tea.Msg) *FollowModel {
	return &FollowModel{
		viewport: viewport.New(80, 24),
		events:   events,
		logFile:  logFile,
	}
}

// Init implements tea.Model
func (m *FollowModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *FollowModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Update implements tea.Model
func (m *FollowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.viewport.LineDown(1)
		case "k", "up":
			m.viewport.LineUp(1)
		case "g", "home":
			m.viewport.GotoTop()
		case "G", "end":
			m.viewport.GotoBottom()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve 2 lines for status bar
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 2
		m.ready = true
		return m, nil

	case TailMsg:
		atBottom := m.viewport.AtBottom()
		m.rows = append(m.rows, msg...)
		m.viewport.SetContent(strings.Join(m.rows, "\n"))
		if atBottom {
			m.viewport.GotoBottom()
		}
		return m, m.waitForEvent()

	case DoneMsg:
		m.done = true
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, tea.Quit
	}

	// Exactly one event waiter is in flight at a time; it is re-armed
	// only from the branches above so rows never arrive out of order.
	return m, nil
}

// View implements tea.Model
func (m *FollowModel) View() string {
	var builder strings.Builder

	builder.WriteString(m.viewport.View())
	builder.WriteString("\n")

	statusStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("240")).
		Foreground(lipgloss.Color("255")).
		Width(m.width)

	state := "following"
	if m.done {
		state = "ended"
	}
	status := fmt.Sprintf(" %s  %d lines  %s", m.logFile, len(m.rows), state)
	builder.WriteString(statusStyle.Render(status))
	builder.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	builder.WriteString(helpStyle.Render("j/k:scroll  g/G:top/bottom  q:quit"))

	return builder.String()
}

// Err reports the failure that ended the session, if any
func (m *FollowModel) Err() error {
	return m.err
}
