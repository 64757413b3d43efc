// Package chat is the per-email question panel. Each opened email gets
// a fresh transcript; closing the panel or switching emails discards it.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/email-agent/internal/keys"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/theme"
	"github.com/nhle/email-agent/internal/triage"
)

// CloseMsg signals the parent to close the chat panel.
type CloseMsg struct{}

// AnswerMsg carries one completed answer (or failure) from the model.
type AnswerMsg struct {
	EmailID string
	Text    string
	Err     error
}

// Model is the chat panel Bubble Tea model for asking questions about
// one email.
type Model struct {
	enricher *triage.Enricher
	email    *model.Email
	log      *triage.ConversationLog
	input    textarea.Model
	viewport viewport.Model
	waiting  bool
	keys     *keys.KeyMap
	width    int
	height   int
	noAPIKey bool
}

// New creates a new chat panel model. If enricher is nil (no API key),
// the panel displays a configuration prompt instead.
func New(enricher *triage.Enricher, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about this email..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	return Model{
		enricher: enricher,
		log:      triage.NewConversationLog(),
		input:    ta,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
		noAPIKey: enricher == nil,
	}
}

// Init returns the initial command for the chat panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// SetEmail points the panel at an email and clears the transcript.
func (m *Model) SetEmail(email *model.Email) {
	m.email = email
	m.log.Reset()
	m.waiting = false
	m.input.Reset()
	m.refreshViewport()
}

// Update handles messages for the chat panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AnswerMsg:
		return m.handleAnswer(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.waiting {
			return m, nil
		}
		return m, func() tea.Msg {
			return CloseMsg{}
		}

	case "enter":
		if m.noAPIKey || m.waiting || m.email == nil {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		m.log.Add(triage.RoleUser, text)
		m.waiting = true
		m.refreshViewport()

		return m, m.ask(text)
	}

	// Let textarea handle other keys
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleAnswer records a completed answer in the transcript. Answers for
// a previously selected email are dropped.
func (m Model) handleAnswer(msg AnswerMsg) (Model, tea.Cmd) {
	if m.email == nil || msg.EmailID != m.email.ID {
		return m, nil
	}

	m.waiting = false
	if msg.Err != nil {
		m.log.Add(triage.RoleAssistant, fmt.Sprintf("Error: %v", msg.Err))
	} else {
		m.log.Add(triage.RoleAssistant, msg.Text)
	}

	m.refreshViewport()
	return m, nil
}

// ask returns a command that sends the question to the model.
func (m Model) ask(question string) tea.Cmd {
	enricher := m.enricher
	email := *m.email
	history := m.log.Turns()
	return func() tea.Msg {
		answer, err := enricher.Chat(
			context.Background(), email, question, history,
		)
		return AnswerMsg{EmailID: email.ID, Text: answer, Err: err}
	}
}

// refreshViewport re-renders the transcript and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the transcript display string.
func (m Model) renderConversation() string {
	turns := m.log.Turns()
	if len(turns) == 0 && !m.noAPIKey {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Ask a question about this email. Answers are based " +
				"strictly on its content.")
	}

	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	for _, turn := range turns {
		var label string
		switch turn.Role {
		case triage.RoleUser:
			label = userStyle.Render("You:")
		case triage.RoleAssistant:
			label = assistantStyle.Render("Assistant:")
		default:
			label = roleStyle.Render(string(turn.Role) + ":")
		}

		sections = append(sections, label)
		sections = append(sections, contentStyle.Render(turn.Content))
		sections = append(sections, "")
	}

	if m.waiting {
		thinkingStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		sections = append(sections, thinkingStyle.Render("..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat panel.
func (m Model) View() string {
	if m.noAPIKey {
		return m.renderNoAPIKey()
	}

	title := "Ask"
	if m.email != nil {
		title = "Ask: " + m.email.Subject
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", min(m.width-6, 80)),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(title),
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Chat requires a Groq API key.\n\n" +
		"To configure, store your API key in the system keyring:\n" +
		"  Key name: groq-api-key\n\n" +
		"Or set the GROQ_API_KEY environment variable.\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the chat panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
