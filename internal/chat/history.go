package chat

import "sync"

// Role identifies the sender of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single turn in the conversation history.
type Turn struct {
	Role    Role
	Content string
}

// History maintains the ordered turn sequence of one conversational
// session. It is append-only and discarded when the session ends.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// NewHistory creates an empty session history.
func NewHistory() *History {
	return &History{}
}

// Add appends a turn to the history.
func (h *History) Add(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of the current turns in chronological order.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]Turn, len(h.turns))
	copy(result, h.turns)
	return result
}

// Len returns the number of turns in the history.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.turns)
}
