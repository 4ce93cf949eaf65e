package widget

import "time"

// EventType names a lifecycle step of the widget.
type EventType string

const (
	EventExchangeStarted   EventType = "exchange.started"
	EventExchangeResolved  EventType = "exchange.resolved"
	EventExchangeDiscarded EventType = "exchange.discarded"
	EventConversationReset EventType = "conversation.reset"
	EventPanelVisibility   EventType = "panel.visibility"
)

// Event is emitted by the Widget on every state transition worth observing.
// Fields that do not apply to a given type are left empty.
type Event struct {
	Type       EventType `json:"type"`
	ExchangeID string    `json:"exchange_id,omitempty"`
	Epoch      uint64    `json:"epoch"`
	Failed     bool      `json:"failed,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Visible    bool      `json:"visible,omitempty"`
	Messages   int       `json:"messages"`
	Time       time.Time `json:"time"`
}

// EventSink receives widget events. Implementations must not block the
// caller, which is the UI event loop.
type EventSink interface {
	PublishEvent(ev Event)
}

type nopSink struct{}

func (nopSink) PublishEvent(Event) {}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev Event)

func (f EventSinkFunc) PublishEvent(ev Event) { f(ev) }
