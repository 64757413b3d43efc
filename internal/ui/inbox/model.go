package inbox

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/email-agent/internal/keys"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
	"github.com/nhle/email-agent/internal/theme"
)

// EmailsLoadedMsg is sent when emails have been loaded from the store.
type EmailsLoadedMsg struct {
	Emails []model.Email
}

// SelectedEmailMsg is sent when a user opens an email detail view.
type SelectedEmailMsg struct {
	EmailID string
}

// categoryFilters defines the filter values cycled by Tab. The empty
// string means no filter.
var categoryFilters = []string{
	"",
	model.CategoryImportant,
	model.CategoryToDo,
	model.CategoryProjectUpdate,
	model.CategoryNewsletter,
	model.CategorySpam,
}

// Model is the inbox list view component.
type Model struct {
	list        list.Model
	store       store.Store
	keys        *keys.KeyMap
	emails      []model.Email
	filterIndex int
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new inbox list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search emails..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of emails.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		m.emails = msg.Emails
		return m, m.applyFilters()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.applyFilters()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.applyFilters()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(EmailItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEmailMsg{EmailID: item.Email.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIndex = (m.filterIndex + 1) % len(categoryFilters)
		return m, m.applyFilters()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilters rebuilds the visible items from the loaded emails, the
// active category filter, and the search query.
func (m *Model) applyFilters() tea.Cmd {
	category := categoryFilters[m.filterIndex]
	query := strings.ToLower(m.query)

	var items []list.Item
	for _, email := range m.emails {
		if category != "" && email.Category != category {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(
				email.Subject + " " + email.Sender + " " + email.Body,
			)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		items = append(items, EmailItem{Email: email})
	}

	return m.list.SetItems(items)
}

// CategoryFilter returns the active category filter, or "" when showing
// all emails.
func (m Model) CategoryFilter() string {
	return categoryFilters[m.filterIndex]
}

// SelectedEmail returns the currently highlighted email, if any.
func (m Model) SelectedEmail() (model.Email, bool) {
	item, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return model.Email{}, false
	}
	return item.Email, true
}

// View renders the inbox view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no emails are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || m.CategoryFilter() != "" {
		return style.Render("No matching emails.\nTry adjusting your filters.")
	}

	return style.Render(
		"Inbox is empty.\n\n" +
			"Point the agent at a seed file or configure IMAP to ingest mail.",
	)
}

// LoadEmails returns a tea.Cmd that queries the store for all emails.
func (m Model) LoadEmails() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		emails, err := s.GetEmails(context.Background())
		if err != nil {
			return EmailsLoadedMsg{Emails: nil}
		}
		return EmailsLoadedMsg{Emails: emails}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
