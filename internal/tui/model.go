// Package tui renders the chat session. It is a consumer of the chat
// application layer: it submits one turn at a time and renders
// Displayed/Failed outcomes plus the context-service indicator.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"gemchat/internal/app/chat"
)

type turnResultMsg struct {
	res chat.TurnResult
}

type Model struct {
	app       *chat.App
	modelName string
	theme     theme

	input    textinput.Model
	timeline viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	blocks []string
	status string

	width  int
	height int
	ready  bool

	// busy serializes turns: while one is in flight no new submission is
	// accepted, which is the precondition the application layer relies on.
	busy bool
	// terminal is set after a non-recoverable failure; the next key quits.
	terminal bool
}

func New(app *chat.App, modelName string) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.PromptStyle = newTheme().inputPrompt
	input.Placeholder = "Type a message (/reset clears, ctrl+c quits)"
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(mint)

	m := Model{
		app:       app,
		modelName: modelName,
		theme:     newTheme(),
		input:     input,
		timeline:  viewport.New(0, 0),
		spin:      sp,
	}

	if warn := app.StartupWarning(); warn != "" {
		m.status = warn
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.timeline.Width = msg.Width
		m.timeline.Height = maxInt(3, msg.Height-5)
		m.input.Width = maxInt(20, msg.Width-4)
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(maxInt(20, msg.Width-4)),
		); err == nil {
			m.renderer = r
		}
		m.ready = true
		m.refreshTimeline()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnResultMsg:
		m.busy = false
		return m.handleResult(msg.res)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.timeline, cmd = m.timeline.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.terminal {
		// The session is over; any key leaves.
		return m, tea.Quit
	}

	switch msg.String() {
	case "enter":
		if m.busy {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m.submit(text)

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "/quit":
		return m, tea.Quit
	case "/reset":
		m.app.Reset()
		m.blocks = nil
		m.status = "Conversation history cleared."
		m.refreshTimeline()
		return m, nil
	}

	m.appendBlock(m.theme.userLabel.Render("You") + "\n" + text)
	m.busy = true
	m.status = ""
	return m, tea.Batch(m.spin.Tick, m.turnCmd(text))
}

func (m Model) turnCmd(text string) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		return turnResultMsg{res: app.HandleTurn(context.Background(), text)}
	}
}

func (m Model) handleResult(res chat.TurnResult) (tea.Model, tea.Cmd) {
	switch res.Kind {
	case chat.ResultDisplayed:
		m.appendBlock(m.theme.modelLabel.Render("Assistant") + "\n" + m.renderMarkdown(res.Text))

	case chat.ResultFailed:
		m.appendBlock(m.theme.errorText.Render("Error: " + res.Failure.UserMessage))
		if res.Terminal {
			m.terminal = true
			m.status = "Session ended. Press any key to exit."
		} else {
			m.status = "You can try again."
		}
	}
	return m, nil
}

func (m *Model) appendBlock(block string) {
	m.blocks = append(m.blocks, block)
	m.refreshTimeline()
}

func (m *Model) refreshTimeline() {
	m.timeline.SetContent(strings.Join(m.blocks, "\n\n"))
	m.timeline.GotoBottom()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := m.renderHeader()
	inputLine := m.input.View()
	if m.busy {
		inputLine = m.spin.View() + " waiting for the model..."
	}

	footer := m.theme.helpText.Render("enter sends · /reset clears · /quit or ctrl+c exits")
	if m.status != "" {
		footer = m.theme.statusWarn.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.timeline.View(),
		inputLine,
		footer,
	)
}

func (m Model) renderHeader() string {
	indicator := m.theme.statusOff.Render("○ context offline")
	if m.app.ContextConnected() {
		indicator = m.theme.statusOK.Render("● context connected")
	}
	title := m.theme.title.Render(fmt.Sprintf("gemchat · %s", m.modelName))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(indicator)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + indicator
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
