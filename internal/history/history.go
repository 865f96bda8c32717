// In file: internal/history/history.go

// Package history stores the per-session chat log that gives the agent its
// multi-turn memory. Sessions are created lazily on first reference and are
// append-only; trimming to a context window happens at read time.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single immutable entry in a session's log.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the ordered log of one conversation.
type Session struct {
	ID       string
	Messages []Message
}

// Store is implemented by every history backend.
type Store interface {
	// Get returns the full session, creating an empty one on first access.
	Get(ctx context.Context, sessionID string) (*Session, error)
	AppendUser(ctx context.Context, sessionID, text string) error
	AppendAssistant(ctx context.Context, sessionID, text string) error
	// AppendTurn records a query and its answer in one write, so a session
	// never holds a user turn without the reply that followed it.
	AppendTurn(ctx context.Context, sessionID, query, answer string) error
	// Window returns at most limit messages in arrival order, chosen by the
	// store's window policy. A limit <= 0 returns the whole session.
	Window(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

// WindowPolicy decides which messages survive trimming.
type WindowPolicy string

const (
	// WindowRecent keeps the last N messages.
	WindowRecent WindowPolicy = "recent"
	// WindowOldest keeps the first N messages of the session.
	WindowOldest WindowPolicy = "oldest"
)

var ErrInvalidPolicy = errors.New("invalid window policy")

// ParseWindowPolicy accepts "recent" (also the empty default) or "oldest".
func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch WindowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WindowRecent:
		return WindowRecent, nil
	case WindowOldest:
		return WindowOldest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

const (
	DefaultCollection = "chat-history"
	DefaultUserID     = "user-1"
)

// Options address a session log inside a backend and choose its policy.
type Options struct {
	Collection string
	UserID     string
	Policy     WindowPolicy
	// TTL expires idle sessions in backends that support it; zero keeps them.
	TTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
	if o.UserID == "" {
		o.UserID = DefaultUserID
	}
	if o.Policy == "" {
		o.Policy = WindowRecent
	}
	return o
}

// applyWindow trims msgs according to policy without mutating it.
func applyWindow(msgs []Message, limit int, policy WindowPolicy) []Message {
	if limit <= 0 || len(msgs) <= limit {
		return append([]Message(nil), msgs...)
	}
	if policy == WindowOldest {
		return append([]Message(nil), msgs[:limit]...)
	}
	return append([]Message(nil), msgs[len(msgs)-limit:]...)
}

func newMessage(role Role, text string) Message {
	return Message{Role: role, Text: text, CreatedAt: time.Now().UTC()}
}
