// Package tui is the terminal surface: a bubbletea program that projects controller
// state and sends it submit commands.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/maxai/internal/model/chat"
	"github.com/zhouzirui/maxai/internal/model/persona"
)

// Conversation is the controller surface the terminal UI drives.
type Conversation interface {
	Snapshot() chat.State
	Subscribe() (<-chan chat.State, func())
	Dispatch(ctx context.Context, raw string) bool
	SetDraft(text string)
}

// Options configures the terminal UI.
type Options struct {
	Persona persona.Persona
	// GlamourStyle selects a glamour standard style; empty picks one from the terminal.
	GlamourStyle string
}

const (
	headerHeight = 2
	footerHeight = 1
	inputHeight  = 3
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B9CFF"))
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7EE3B8"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B9CFF"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7285"))
	inputBorder    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2B3245"))
)

type stateMsg chat.State

type subscriptionClosedMsg struct{}

// Model is the bubbletea model.
type Model struct {
	conv   Conversation
	opts   Options
	states <-chan chat.State
	stop   func()

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	state  chat.State
	width  int
	height int
	ready  bool
}

// New builds a Model subscribed to conv. Call Close when the program exits.
func New(conv Conversation, opts Options) *Model {
	ta := textarea.New()
	ta.Placeholder = opts.Persona.Placeholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.SetHeight(inputHeight - 2)
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	states, stop := conv.Subscribe()

	return &Model{
		conv:     conv,
		opts:     opts,
		states:   states,
		stop:     stop,
		input:    ta,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		state:    conv.Snapshot(),
	}
}

// Close releases the controller subscription.
func (m *Model) Close() {
	m.stop()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForState())
}

func (m *Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return subscriptionClosedMsg{}
		}
		return stateMsg(state)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.state = chat.State(msg)
		m.refresh()
		return m, m.waitForState()

	case subscriptionClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Busy {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.submit()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.conv.SetDraft(after)
	}
	return m, cmd
}

// submit hands the input to the controller; the box is cleared only when accepted.
func (m *Model) submit() {
	if m.state.Busy || strings.TrimSpace(m.input.Value()) == "" {
		return
	}
	if m.conv.Dispatch(context.Background(), m.input.Value()) {
		m.input.Reset()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight-inputHeight, 1)
	m.input.SetWidth(max(width-4, 10))

	style := glamour.WithAutoStyle()
	if m.opts.GlamourStyle != "" {
		style = glamour.WithStandardStyle(m.opts.GlamourStyle)
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(width-4, 20)))
	if err == nil {
		m.renderer = renderer
	}

	m.ready = true
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	var b strings.Builder
	if len(m.state.Messages) == 0 {
		b.WriteString(titleStyle.Render(m.opts.Persona.EmptyTitle) + "\n")
		b.WriteString(hintStyle.Render(m.opts.Persona.EmptyHint) + "\n")
	}
	for _, msg := range m.state.Messages {
		if msg.IsUser() {
			b.WriteString(userLabel.Render("You") + "\n")
		} else {
			b.WriteString(assistantLabel.Render(m.opts.Persona.Name) + "\n")
		}
		b.WriteString(m.renderMarkdown(msg.Text))
		b.WriteString("\n")
	}
	if m.state.Busy {
		b.WriteString(assistantLabel.Render(m.opts.Persona.Name) + "\n")
		b.WriteString(m.spinner.View() + " thinking...\n")
	}
	return b.String()
}

func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := titleStyle.Render("✨ "+m.opts.Persona.Name) + " " + hintStyle.Render(m.opts.Persona.Title)

	hint := "enter send • alt+enter newline • pgup/pgdown scroll • esc quit"
	if m.state.Busy {
		hint = m.spinner.View() + " " + m.opts.Persona.Name + " is thinking... • esc quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header+"\n",
		m.viewport.View(),
		inputBorder.Width(max(m.width-2, 10)).Render(m.input.View()),
		hintStyle.Render(hint),
	)
}
