package session

import (
	"errors"
	"time"

	"github.com/park285/rps-kakaotalk-bot/internal/rps"
)

// State is where a user is in the conversation.
type State string

const (
	StateIdle     State = "IDLE"
	StateAwaiting State = "AWAITING_CHOICE"
	StateEnded    State = "ENDED"
)

var (
	ErrNoSession   = errors.New("no active game for user")
	ErrInvalidUser = errors.New("missing user id")
)

// Session is transient per-user state; it is never persisted.
type Session struct {
	ID        string
	User      string
	State     State
	StartedAt time.Time
	Rounds    int
}

// Option is one entry of the choice selector. ID is what the user sends
// back.
type Option struct {
	ID    string
	Label string
}

// Message is one outbound chat message. Choices is set only for the
// selector prompt.
type Message struct {
	Text    string
	Choices []Option
	// Hint is shown under the selector.
	Hint string
}

// Reply is everything an inbound event produced, in send order.
type Reply struct {
	Messages []Message
	Round    *rps.Round
}

func (r *Reply) text(s string) *Reply {
	r.Messages = append(r.Messages, Message{Text: s})
	return r
}

// Texts supplies user-facing wording by key.
type Texts interface {
	Text(key string, data any) string
}
