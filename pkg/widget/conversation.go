package widget

import (
	"strings"

	"github.com/pkg/errors"
)

// RequestState tells whether a question is currently awaiting its answer.
type RequestState int

const (
	StateIdle RequestState = iota
	StateSending
)

func (s RequestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

var (
	// ErrStaleResolution is returned when a resolution belongs to an epoch
	// that a reset has already closed.
	ErrStaleResolution = errors.New("resolution belongs to a previous epoch")
	// ErrNothingPending is returned when there is no placeholder to replace.
	ErrNothingPending = errors.New("no pending exchange to resolve")
)

// Pending describes an accepted submission that still has to be sent.
type Pending struct {
	Epoch uint64
	Text  string
}

// Conversation owns the ordered message sequence, the input buffer and the
// request state. It is not safe for concurrent use: all mutations are
// expected to happen on the event loop that renders it.
type Conversation struct {
	greeting    string
	messages    []Message
	input       string
	state       RequestState
	epoch       uint64
	placeholder int
}

func NewConversation(greeting string) *Conversation {
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	c := &Conversation{greeting: greeting}
	c.seed()
	return c
}

func (c *Conversation) seed() {
	c.messages = []Message{BotMessage(c.greeting)}
	c.input = ""
	c.state = StateIdle
	c.placeholder = -1
}

func (c *Conversation) Greeting() string { return c.greeting }

func (c *Conversation) SetInput(s string) { c.input = s }

func (c *Conversation) Input() string { return c.input }

// Submit appends the trimmed user text followed by the placeholder bot
// message and moves the conversation into the sending state. Whitespace-only
// text and submissions made while another exchange is in flight are
// ignored and leave the conversation untouched.
func (c *Conversation) Submit(text string) (Pending, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Pending{}, false
	}
	if c.state == StateSending {
		return Pending{}, false
	}

	c.messages = append(c.messages, UserMessage(trimmed))
	c.input = ""
	c.state = StateSending
	c.messages = append(c.messages, BotMessage(PlaceholderContent))
	c.placeholder = len(c.messages) - 1

	return Pending{Epoch: c.epoch, Text: trimmed}, true
}

// SubmitInput submits the current input buffer.
func (c *Conversation) SubmitInput() (Pending, bool) {
	return c.Submit(c.input)
}

// Resolve replaces the placeholder, which is always the last message, with
// the outcome's content and returns the conversation to idle.
func (c *Conversation) Resolve(epoch uint64, outcome Outcome) error {
	if epoch != c.epoch {
		return ErrStaleResolution
	}
	last := len(c.messages) - 1
	if c.state != StateSending || c.placeholder < 0 || c.placeholder != last {
		return ErrNothingPending
	}

	msg := BotMessage(outcome.Content())
	if outcome.Failed() {
		msg = FailedMessage(outcome.Content())
	}
	c.messages[last] = msg
	c.placeholder = -1
	c.state = StateIdle
	return nil
}

// Reset restores the greeting-only conversation and opens a new epoch so
// that answers to questions asked before the reset are discarded.
func (c *Conversation) Reset() {
	c.epoch++
	c.seed()
}

// Messages returns a copy of the message sequence.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int { return len(c.messages) }

func (c *Conversation) Last() Message { return c.messages[len(c.messages)-1] }

func (c *Conversation) State() RequestState { return c.state }

func (c *Conversation) Sending() bool { return c.state == StateSending }

func (c *Conversation) Epoch() uint64 { return c.epoch }

// PendingIndex returns the index of the placeholder message, if any.
func (c *Conversation) PendingIndex() (int, bool) {
	if c.placeholder < 0 {
		return 0, false
	}
	return c.placeholder, true
}

// LastBotReply returns the newest committed bot message, skipping a pending
// placeholder.
func (c *Conversation) LastBotReply() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if i == c.placeholder {
			continue
		}
		if c.messages[i].IsBot() {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
