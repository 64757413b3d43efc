package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/email-agent/internal/keys"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded email and its saved drafts.
type DetailLoadedMsg struct {
	Email  *model.Email
	Drafts []model.Draft
}

// ChatRequestMsg signals the parent to open the chat panel for the
// current email.
type ChatRequestMsg struct {
	EmailID string
}

// DraftRequestMsg signals the parent to generate a reply draft for the
// current email.
type DraftRequestMsg struct {
	EmailID string
}

// Model is the email detail view component.
type Model struct {
	email    *model.Email
	drafts   []model.Draft
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.email = msg.Email
		m.drafts = msg.Drafts
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Chat):
			if m.email != nil {
				id := m.email.ID
				return m, func() tea.Msg {
					return ChatRequestMsg{EmailID: id}
				}
			}

		case key.Matches(msg, m.keys.Draft):
			if m.email != nil {
				id := m.email.ID
				return m, func() tea.Msg {
					return DraftRequestMsg{EmailID: id}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading email...")
	}

	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No email selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	// Subject
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(email.Subject))

	// Badges line: category + read state
	categoryBadge := theme.CategoryStyle(email.Category).Render(
		categoryLabel(email.Category),
	)

	readBadge := ""
	if !email.Read {
		readBadge = theme.UnreadStyle.Render("UNREAD")
	}

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top, categoryBadge, "  ", readBadge,
	)
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s      %s",
		metaStyle.Render("From:"),
		valStyle.Render(email.Sender),
	))
	if email.Timestamp != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(email.Timestamp),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Action items
	sections = append(sections, m.renderActionItems()...)

	// Body
	bodyHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections = append(sections, bodyHeaderStyle.Render("Body"))

	body := email.Body
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No body")
	}
	sections = append(sections, body)

	// Drafts section
	if len(m.drafts) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		draftHeaderStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)

		sections = append(sections, draftHeaderStyle.Render(
			fmt.Sprintf("Drafts (%d)", len(m.drafts)),
		))
		sections = append(sections, "")

		subjectStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

		for _, d := range m.drafts {
			header := fmt.Sprintf(
				"%s  %s %s",
				subjectStyle.Render(d.Subject),
				theme.DraftStatusStyle(d.Status).Render(d.Status),
				timeStyle.Render(d.CreatedAt.Format("2006-01-02 15:04")),
			)
			sections = append(sections, header)
			sections = append(sections, d.Body)
			sections = append(sections, "")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderActionItems formats the stored action-item set, including a
// recorded extraction failure if that is what the enrichment run left.
func (m Model) renderActionItems() []string {
	if m.email == nil || !m.email.Extracted() {
		return nil
	}

	var sections []string

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	set, err := model.DecodeActionItemSet(m.email.ActionItems)
	if err != nil {
		return nil
	}

	sections = append(sections, headerStyle.Render("Action Items"))

	if set.Failed() {
		warn := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render("⚠ extraction failed: " + set.Error)
		sections = append(sections, warn)
	} else if len(set.Tasks) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No action items found"))
	} else {
		deadlineStyle := lipgloss.NewStyle().Foreground(theme.ColorYellow)
		for _, item := range set.Tasks {
			line := "• " + item.Task
			if item.Deadline != "" {
				line += deadlineStyle.Render("  (due " + item.Deadline + ")")
			}
			sections = append(sections, line)
		}
	}

	sections = append(sections, "")
	return sections
}

// SetEmail updates the email being displayed and re-renders the content.
func (m *Model) SetEmail(email *model.Email, drafts []model.Draft) {
	m.email = email
	m.drafts = drafts
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Email returns the email currently displayed, if any.
func (m Model) Email() *model.Email {
	return m.email
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

// categoryLabel returns the badge text for a category value.
func categoryLabel(category string) string {
	if category == "" {
		return "UNCATEGORIZED"
	}
	return strings.ToUpper(category)
}
