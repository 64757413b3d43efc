// Package sync runs background work for the UI: on-demand enrichment
// passes over the inbox and optional periodic IMAP ingestion. Results
// arrive as tea.Msg values over a shared channel the app subscribes to.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/email-agent/internal/imap"
	"github.com/nhle/email-agent/internal/store"
	"github.com/nhle/email-agent/internal/triage"
)

// RunState represents the current state of the background runner.
type RunState int

const (
	RunIdle RunState = iota
	RunActive
	RunError
)

// ProgressMsg is a tea.Msg sent after each email an enrichment pass
// touches.
type ProgressMsg struct {
	Progress triage.Progress
}

// EnrichDoneMsg is a tea.Msg sent when an enrichment pass finishes.
type EnrichDoneMsg struct {
	Summary triage.Summary
	Error   error
}

// FetchResultMsg is a tea.Msg sent when an IMAP ingestion cycle
// completes.
type FetchResultMsg struct {
	NewCount  int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the mailbox rejects our login.
type AuthErrorMsg struct {
	Message string
}

// fetchTimeout is the maximum time allowed for a single IMAP cycle.
const fetchTimeout = 60 * time.Second

// Runner orchestrates enrichment passes and mailbox polling off the UI
// goroutine.
type Runner struct {
	store     store.Store
	enricher  *triage.Enricher
	fetcher   *imap.Fetcher
	fetchMax  int
	resultCh  chan tea.Msg
	stopCh    chan struct{}
	mu        gosync.Mutex
	enriching bool
	state     RunState
	lastRun   time.Time
	lastErr   error
	polling   bool
}

// New creates a Runner. enricher may be nil when no API key is
// configured; fetcher may be nil when IMAP is not configured.
func New(s store.Store, enricher *triage.Enricher, fetcher *imap.Fetcher, fetchMax int) *Runner {
	return &Runner{
		store:    s,
		enricher: enricher,
		fetcher:  fetcher,
		fetchMax: fetchMax,
		resultCh: make(chan tea.Msg, 32),
		stopCh:   make(chan struct{}),
	}
}

// CanEnrich reports whether an enrichment pass can be started.
func (r *Runner) CanEnrich() bool {
	return r.enricher != nil
}

// StartEnrichment launches one enrichment pass in the background and
// returns a command subscribing to its results. Returns nil if a pass
// is already in flight or no engine is configured.
func (r *Runner) StartEnrichment() tea.Cmd {
	if r.enricher == nil {
		return nil
	}

	r.mu.Lock()
	if r.enriching {
		r.mu.Unlock()
		return nil
	}
	r.enriching = true
	r.state = RunActive
	r.mu.Unlock()

	go r.runEnrichment()

	return r.waitForResult()
}

// runEnrichment executes the pass and reports progress and the final
// summary over the result channel.
func (r *Runner) runEnrichment() {
	summary, err := r.enricher.EnrichAll(
		context.Background(),
		func(p triage.Progress) {
			r.sendResult(ProgressMsg{Progress: p})
		},
	)

	r.mu.Lock()
	r.enriching = false
	r.lastErr = err
	if err != nil {
		r.state = RunError
	} else {
		r.state = RunIdle
		r.lastRun = time.Now()
	}
	r.mu.Unlock()

	r.sendResult(EnrichDoneMsg{Summary: summary, Error: err})
}

// StartPolling begins periodic mailbox ingestion and returns a command
// subscribing to results. Returns nil when IMAP is not configured or
// polling already runs.
func (r *Runner) StartPolling(interval time.Duration) tea.Cmd {
	if r.fetcher == nil {
		return nil
	}

	r.mu.Lock()
	if r.polling {
		r.mu.Unlock()
		return nil
	}
	r.polling = true
	r.mu.Unlock()

	go r.pollMailbox(interval)

	return r.waitForResult()
}

// pollMailbox runs the ingestion loop until Stop is called.
func (r *Runner) pollMailbox(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	r.fetchAndIngest()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.fetchAndIngest()
		}
	}
}

// fetchAndIngest performs one mailbox cycle: fetch recent messages and
// insert the ones not seen before.
func (r *Runner) fetchAndIngest() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	emails, err := r.fetcher.FetchInbox(ctx, r.fetchMax)
	if err != nil {
		if imap.IsAuthError(err) {
			r.sendResult(FetchResultMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: fmt.Sprintf(
						"mailbox login failed: %v", err,
					),
				},
			})
			return
		}
		r.sendResult(FetchResultMsg{Error: err})
		return
	}

	count := 0
	if len(emails) > 0 {
		count, err = r.store.InsertEmails(ctx, emails)
		if err != nil {
			r.sendResult(FetchResultMsg{Error: err})
			return
		}
	}

	r.sendResult(FetchResultMsg{NewCount: count})
}

// Stop halts background polling. In-flight enrichment passes finish
// their current email and report normally.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.polling {
		close(r.stopCh)
		r.polling = false
	}
}

// Status returns the runner state and the time of the last successful
// enrichment pass.
func (r *Runner) Status() (RunState, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.lastRun, r.lastErr
}

// Enriching reports whether a pass is currently in flight.
func (r *Runner) Enriching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enriching
}

// sendResult sends a message on the result channel without blocking.
func (r *Runner) sendResult(msg tea.Msg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the worker
	}
}

// waitForResult returns a tea.Cmd that waits for the next message from
// the result channel.
func (r *Runner) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-r.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call after processing a runner message to keep listening.
func (r *Runner) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}
