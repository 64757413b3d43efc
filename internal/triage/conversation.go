package triage

import "sync"

// Role identifies the sender of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single question or answer in a per-email conversation.
type Turn struct {
	Role    Role
	Content string
}

// ConversationLog holds the transcript for one selected email. It is
// owned by the caller and passed explicitly into Chat; selecting another
// email means starting a fresh log, so no transcript leaks across emails.
type ConversationLog struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

// NewConversationLog creates a conversation log holding at most 40 turns.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		turns:    make([]Turn, 0, 40),
		maxTurns: 40,
	}
}

// Add appends a turn, trimming the oldest entries past the limit.
func (l *ConversationLog) Add(role Role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, Turn{Role: role, Content: content})

	if len(l.turns) > l.maxTurns {
		excess := len(l.turns) - l.maxTurns
		l.turns = append(l.turns[:0:0], l.turns[excess:]...)
	}
}

// Turns returns a copy of the current transcript.
func (l *ConversationLog) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]Turn, len(l.turns))
	copy(result, l.turns)
	return result
}

// Reset clears the transcript.
func (l *ConversationLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = l.turns[:0]
}

// Len returns the number of turns in the log.
func (l *ConversationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.turns)
}
