// Package prompts is the editor view for the stored prompt templates.
// Edits are persisted immediately and picked up by the next enrichment
// run; no restart is needed.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/email-agent/internal/keys"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
	"github.com/nhle/email-agent/internal/theme"
)

// Mode represents the current state of the prompt editor view.
type Mode int

const (
	ModeList Mode = iota // List stored templates
	ModeEdit             // Edit one template body
)

// DoneMsg signals the editor should close and return to the main app.
type DoneMsg struct{}

// PromptSavedMsg signals a template was saved successfully.
type PromptSavedMsg struct {
	Name string
}

// promptsLoadedMsg is sent when templates have been loaded from the store.
type promptsLoadedMsg struct {
	prompts []model.PromptTemplate
	err     error
}

// promptSavedInternalMsg is sent after a template is persisted.
type promptSavedInternalMsg struct {
	name string
	err  error
}

// promptHints describes the variables each template may reference.
var promptHints = map[string][]string{
	model.PromptCategorize:   {"subject", "body"},
	model.PromptExtractTasks: {"body"},
	model.PromptSuggestReply: {"body"},
}

// Model is the Bubble Tea model for the prompt template editor.
type Model struct {
	mode        Mode
	store       store.Store
	prompts     []model.PromptTemplate
	selectedIdx int

	editForm     *huh.Form
	formTemplate string
	editingName  string

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new prompt editor model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   ModeList,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads templates from the store on first render.
func (m Model) Init() tea.Cmd {
	return m.loadPrompts()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case promptsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading templates: %v", msg.err)
			return m, nil
		}
		m.prompts = msg.prompts
		return m, nil

	case promptSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving template: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Template %q saved", msg.name)
		m.mode = ModeList
		return m, tea.Batch(
			m.loadPrompts(),
			func() tea.Msg { return PromptSavedMsg{Name: msg.name} },
		)

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			return m.handleListKeys(msg)
		case ModeEdit:
			return m.updateEditForm(msg)
		}
		return m, nil
	}

	if m.mode == ModeEdit {
		return m.updateEditForm(msg)
	}
	return m, nil
}

// handleListKeys processes key events in the template list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case msg.String() == "enter", msg.String() == "e":
		if len(m.prompts) == 0 {
			return m, nil
		}
		p := m.prompts[m.selectedIdx]
		m.editingName = p.Name
		m.formTemplate = p.Template
		m.editForm = m.buildEditForm(p.Name)
		m.mode = ModeEdit
		return m, m.editForm.Init()

	case key.Matches(msg, m.keys.Down):
		if len(m.prompts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.prompts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.prompts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.prompts) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

// buildEditForm constructs the huh form for editing one template body.
func (m *Model) buildEditForm(name string) *huh.Form {
	description := "Placeholders: " + hintLine(name)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Template: " + name).
				Description(description).
				Lines(14).
				CharLimit(8000).
				Value(&m.formTemplate).
				Validate(validateNotEmpty),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateEditForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.editForm == nil {
		return m, nil
	}

	mdl, cmd := m.editForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.editForm = f
	}

	if m.editForm.State == huh.StateCompleted {
		return m, m.savePrompt(m.editingName, m.formTemplate)
	}
	if m.editForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the editor UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeEdit:
		return m.viewForm(m.editForm)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Prompt Templates"))
	b.WriteString("\n\n")

	if len(m.prompts) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render("No templates found."))
	} else {
		for i, p := range m.prompts {
			b.WriteString(m.renderPromptItem(i, p))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render("enter/e edit | esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderPromptItem(idx int, p model.PromptTemplate) string {
	preview := firstLine(p.Template)
	if len(preview) > 60 {
		preview = preview[:60] + "…"
	}

	previewStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	line := fmt.Sprintf("%s  %s", p.Name, previewStyle.Render(preview))

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// loadPrompts returns a command that loads all templates from the store.
func (m Model) loadPrompts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		prompts, err := s.GetPromptTemplates(context.Background())
		return promptsLoadedMsg{prompts: prompts, err: err}
	}
}

// savePrompt returns a command that persists one template body.
func (m Model) savePrompt(name, template string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.SetPromptTemplate(context.Background(), name, template)
		return promptSavedInternalMsg{name: name, err: err}
	}
}

// hintLine formats the placeholder hint for one template name.
func hintLine(name string) string {
	vars := promptHints[name]
	if len(vars) == 0 {
		return "(none)"
	}
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = "{" + v + "}"
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func validateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("template cannot be empty")
	}
	return nil
}
