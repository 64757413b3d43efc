// Package app wires the store, the enrichment pipeline, and the
// Bubble Tea views into the root terminal application.
package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/email-agent/internal/keys"
	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/store"
	appsync "github.com/nhle/email-agent/internal/sync"
	"github.com/nhle/email-agent/internal/triage"
	"github.com/nhle/email-agent/internal/ui"
	chatview "github.com/nhle/email-agent/internal/ui/chat"
	"github.com/nhle/email-agent/internal/ui/detail"
	helpview "github.com/nhle/email-agent/internal/ui/help"
	"github.com/nhle/email-agent/internal/ui/inbox"
	promptsview "github.com/nhle/email-agent/internal/ui/prompts"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewChat
	ViewPrompts
	ViewHelp
)

// draftSavedMsg carries the result of a reply draft generation.
type draftSavedMsg struct {
	emailID string
	draft   model.Draft
	err     error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	enricher     *triage.Enricher
	runner       *appsync.Runner
	keys         *keys.KeyMap
	inboxView    inbox.Model
	detailView   detail.Model
	chatView     chatview.Model
	promptsView  promptsview.Model
	helpView     helpview.Model
	ready        bool
	statusMsg    string
}

// New creates a new root application model. enricher may be nil when no
// API key is configured; enrichment, chat, and drafting are then
// disabled while browsing still works.
func New(s store.Store, enricher *triage.Enricher, runner *appsync.Runner) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewInbox,
		store:       s,
		enricher:    enricher,
		runner:      runner,
		keys:        k,
		inboxView:   inbox.New(s, k, 80, 24),
		detailView:  detail.New(k, 80, 24),
		chatView:    chatview.New(enricher, k, 80, 24),
		promptsView: promptsview.New(s, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init returns the initial commands to load the inbox and start
// mailbox polling when configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inboxView.Init()}
	if cmd := m.runner.StartPolling(0); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.chatView.SetSize(contentWidth, contentHeight)
		m.promptsView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.ProgressMsg:
		p := msg.Progress
		if p.Err != nil {
			m.statusMsg = fmt.Sprintf(
				"enriching %d/%d (skipped %s: %v)",
				p.Index, p.Total, p.EmailID, p.Err,
			)
		} else {
			m.statusMsg = fmt.Sprintf("enriching %d/%d", p.Index, p.Total)
		}
		return m, m.runner.WaitForNextResult()

	case appsync.EnrichDoneMsg:
		if msg.Error != nil {
			m.statusMsg = enrichErrorMessage(msg.Error)
		} else {
			s := msg.Summary
			m.statusMsg = fmt.Sprintf(
				"enriched %d emails: %d categorized, %d extracted, %d failed",
				s.Total, s.Categorized, s.Extracted, s.Failed,
			)
		}
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.runner.WaitForNextResult(),
		)

	case appsync.FetchResultMsg:
		if msg.AuthError != nil {
			m.statusMsg = msg.AuthError.Message
		} else if msg.Error != nil {
			m.statusMsg = fmt.Sprintf("mailbox fetch failed: %v", msg.Error)
		} else if msg.NewCount > 0 {
			m.statusMsg = fmt.Sprintf("fetched %d new emails", msg.NewCount)
		}
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.runner.WaitForNextResult(),
		)

	case inbox.SelectedEmailMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetLoading(true)
		return m, m.loadEmailDetail(msg.EmailID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, m.inboxView.LoadEmails()

	case detail.ChatRequestMsg:
		if email := m.detailView.Email(); email != nil {
			m.previousView = m.currentView
			m.currentView = ViewChat
			m.chatView.SetEmail(email)
			return m, m.chatView.Focus()
		}
		return m, nil

	case detail.DraftRequestMsg:
		m.statusMsg = "drafting reply..."
		return m, m.generateDraft(msg.EmailID)

	case draftSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("draft failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("draft saved: %s", msg.draft.Subject)
		if m.currentView == ViewDetail {
			return m, m.loadEmailDetail(msg.emailID)
		}
		return m, nil

	case chatview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case chatview.AnswerMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case promptsview.DoneMsg:
		m.currentView = ViewInbox
		return m, nil

	case promptsview.PromptSavedMsg:
		m.statusMsg = fmt.Sprintf(
			"template %q saved; next enrichment run will use it", msg.Name,
		)
		var cmd tea.Cmd
		m.promptsView, cmd = m.promptsView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.runner.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewInbox {
				m.runner.Stop()
				return m, tea.Quit
			}

		case "?":
			// Do not intercept when the chat panel has input focus
			if m.currentView == ViewChat {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "e":
			if m.currentView == ViewInbox {
				return m.startEnrichment()
			}

		case "p":
			if m.currentView == ViewInbox {
				m.previousView = m.currentView
				m.currentView = ViewPrompts
				return m, m.promptsView.Init()
			}

		case "r":
			if m.currentView == ViewInbox {
				return m, m.inboxView.LoadEmails()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// startEnrichment kicks off a background enrichment pass.
func (m Model) startEnrichment() (tea.Model, tea.Cmd) {
	if !m.runner.CanEnrich() {
		m.statusMsg = "no API key configured; set GROQ_API_KEY to enable enrichment"
		return m, nil
	}

	cmd := m.runner.StartEnrichment()
	if cmd == nil {
		m.statusMsg = "enrichment already running"
		return m, nil
	}

	m.statusMsg = "enriching..."
	return m, cmd
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewPrompts:
		m.promptsView, cmd = m.promptsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Email Agent", m.runStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewChat:
		return m.chatView.View()
	case ViewPrompts:
		return m.promptsView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// runStatus returns a short string describing the enrichment state for
// the header.
func (m Model) runStatus() string {
	if !m.runner.CanEnrich() {
		return "no API key"
	}
	if m.runner.Enriching() {
		return "enriching"
	}

	state, lastRun, _ := m.runner.Status()
	switch state {
	case appsync.RunError:
		return "last run failed"
	default:
		if lastRun.IsZero() {
			return "idle"
		}
		return "idle · " + lastRun.Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" &&
		(m.currentView == ViewInbox || m.currentView == ViewDetail) {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | a ask | d draft reply | j/k scroll"
	case ViewChat:
		return "enter send | esc close"
	case ViewPrompts:
		return "enter/e edit | esc back"
	default:
		filter := m.inboxView.CategoryFilter()
		if filter != "" {
			return fmt.Sprintf(
				"category: %s | tab next | q quit | ? help", filter,
			)
		}
		return "q quit | ? help | e enrich | p prompts | / search | tab filter"
	}
}

// loadEmailDetail returns a command that loads an email and its drafts.
func (m Model) loadEmailDetail(emailID string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		email, err := s.GetEmailByID(ctx, emailID)
		if err != nil {
			return detail.DetailLoadedMsg{Email: nil}
		}

		drafts, err := s.GetDraftsForEmail(ctx, emailID)
		if err != nil {
			drafts = nil
		}

		return detail.DetailLoadedMsg{Email: email, Drafts: drafts}
	}
}

// generateDraft returns a command that generates and saves a reply
// draft for one email.
func (m Model) generateDraft(emailID string) tea.Cmd {
	s := m.store
	enricher := m.enricher
	return func() tea.Msg {
		if enricher == nil {
			return draftSavedMsg{
				emailID: emailID,
				err:     llm.ErrEngineUnavailable,
			}
		}

		ctx := context.Background()

		email, err := s.GetEmailByID(ctx, emailID)
		if err != nil {
			return draftSavedMsg{emailID: emailID, err: err}
		}

		draft, err := enricher.GenerateDraft(ctx, *email)
		return draftSavedMsg{emailID: emailID, draft: draft, err: err}
	}
}

// enrichErrorMessage turns an aborted enrichment run into a status line.
func enrichErrorMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrEngineUnavailable):
		return "enrichment stopped: no API key configured"
	case store.IsPromptNotFound(err):
		return fmt.Sprintf("enrichment stopped: %v", err)
	default:
		var mv *llm.MissingVariableError
		if errors.As(err, &mv) {
			return fmt.Sprintf(
				"enrichment stopped: template references unknown {%s}",
				mv.Name,
			)
		}
		return fmt.Sprintf("enrichment stopped: %v", err)
	}
}
