package widget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sender performs the single network call behind an exchange.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, text string) (string, error)

func (f SenderFunc) Send(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// categorized is implemented by errors that carry a coarse failure category
// safe to show in logs and events.
type categorized interface {
	ErrorCategory() string
}

// Resolution carries the outcome of an exchange back to the event loop.
type Resolution struct {
	ExchangeID string
	Epoch      uint64
	Outcome    Outcome
}

// Exchange is the off-loop half of an accepted submission. Run may be called
// from any goroutine; it touches no widget state.
type Exchange struct {
	ID    string
	Epoch uint64
	Text  string

	sender Sender
}

// Run sends the question and always returns a Resolution, converting errors
// and panics from the sender into a failed outcome.
func (e *Exchange) Run(ctx context.Context) (res Resolution) {
	res = Resolution{ExchangeID: e.ID, Epoch: e.Epoch}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "widget").Str("exchange_id", e.ID).
				Interface("panic", r).Msg("sender panicked")
			res.Outcome = Failure(errors.Errorf("sender panicked: %v", r))
		}
	}()

	if e.sender == nil {
		res.Outcome = Failure(errors.New("no sender configured"))
		return res
	}
	text, err := e.sender.Send(ctx, e.Text)
	if err != nil {
		res.Outcome = Failure(err)
		return res
	}
	res.Outcome = Success(text)
	return res
}

// RenderState is everything the presentation layer needs to draw the widget.
type RenderState struct {
	Messages     []Message
	State        RequestState
	Visible      bool
	Input        string
	Epoch        uint64
	PendingIndex int
}

func (s RenderState) Sending() bool { return s.State == StateSending }

// IsPending reports whether the message at index i is the placeholder.
func (s RenderState) IsPending(i int) bool {
	return s.PendingIndex >= 0 && s.PendingIndex == i
}

type Option func(*Widget)

func WithGreeting(greeting string) Option {
	return func(w *Widget) { w.greeting = greeting }
}

func WithEventSink(sink EventSink) Option {
	return func(w *Widget) {
		if sink != nil {
			w.sink = sink
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		if now != nil {
			w.now = now
		}
	}
}

// Widget composes the conversation store, the panel and the sender. Like
// Conversation it must only be mutated from a single event loop.
type Widget struct {
	conv   *Conversation
	panel  Panel
	sender Sender
	sink   EventSink
	now    func() time.Time

	greeting string
}

func New(sender Sender, opts ...Option) *Widget {
	w := &Widget{
		sender: sender,
		sink:   nopSink{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.conv = NewConversation(w.greeting)
	return w
}

func (w *Widget) Conversation() *Conversation { return w.conv }

func (w *Widget) SetInput(s string) { w.conv.SetInput(s) }

// Submit validates and records the question. It returns nil when the
// submission was skipped (blank text or an exchange already in flight).
func (w *Widget) Submit(text string) *Exchange {
	if w.conv.Sending() {
		log.Debug().Str("component", "widget").Uint64("epoch", w.conv.Epoch()).
			Msg("submit rejected while another exchange is in flight")
		return nil
	}
	pending, ok := w.conv.Submit(text)
	if !ok {
		return nil
	}
	return w.start(pending)
}

// SubmitInput submits the current input buffer.
func (w *Widget) SubmitInput() *Exchange {
	return w.Submit(w.conv.Input())
}

func (w *Widget) start(p Pending) *Exchange {
	ex := &Exchange{
		ID:     uuid.NewString(),
		Epoch:  p.Epoch,
		Text:   p.Text,
		sender: w.sender,
	}
	log.Debug().Str("component", "widget").Str("exchange_id", ex.ID).
		Uint64("epoch", ex.Epoch).Int("chars", len(ex.Text)).Msg("exchange started")
	w.emit(Event{Type: EventExchangeStarted, ExchangeID: ex.ID, Epoch: ex.Epoch})
	return ex
}

// Apply delivers a resolution to the conversation. It returns false when the
// resolution was discarded, e.g. because the conversation was reset while
// the request was in flight.
func (w *Widget) Apply(res Resolution) bool {
	if err := w.conv.Resolve(res.Epoch, res.Outcome); err != nil {
		log.Debug().Str("component", "widget").Str("exchange_id", res.ExchangeID).
			Uint64("epoch", res.Epoch).Uint64("current_epoch", w.conv.Epoch()).
			Err(err).Msg("resolution discarded")
		w.emit(Event{Type: EventExchangeDiscarded, ExchangeID: res.ExchangeID, Epoch: res.Epoch, Reason: err.Error()})
		return false
	}

	ev := Event{Type: EventExchangeResolved, ExchangeID: res.ExchangeID, Epoch: res.Epoch}
	if res.Outcome.Failed() {
		ev.Failed = true
		ev.Reason = "failed"
		var c categorized
		if errors.As(res.Outcome.Err(), &c) {
			ev.Reason = c.ErrorCategory()
		}
		log.Warn().Str("component", "widget").Str("exchange_id", res.ExchangeID).
			Str("category", ev.Reason).Err(res.Outcome.Err()).Msg("exchange failed")
	} else {
		log.Debug().Str("component", "widget").Str("exchange_id", res.ExchangeID).
			Msg("exchange resolved")
	}
	w.emit(ev)
	return true
}

// ResetConversation restores the greeting and discards any in-flight answer.
func (w *Widget) ResetConversation() {
	w.conv.Reset()
	log.Debug().Str("component", "widget").Uint64("epoch", w.conv.Epoch()).Msg("conversation reset")
	w.emit(Event{Type: EventConversationReset, Epoch: w.conv.Epoch()})
}

func (w *Widget) Visible() bool { return w.panel.Visible() }

func (w *Widget) Toggle() bool {
	v := w.panel.Toggle()
	w.emit(Event{Type: EventPanelVisibility, Visible: v, Epoch: w.conv.Epoch()})
	return v
}

func (w *Widget) SetVisible(v bool) {
	if w.panel.SetVisible(v) {
		w.emit(Event{Type: EventPanelVisibility, Visible: v, Epoch: w.conv.Epoch()})
	}
}

// Minimize hides the panel and keeps the conversation.
func (w *Widget) Minimize() { w.SetVisible(false) }

// Close hides the panel and starts over with a fresh conversation.
func (w *Widget) Close() {
	w.SetVisible(false)
	w.ResetConversation()
}

func (w *Widget) Snapshot() RenderState {
	idx, ok := w.conv.PendingIndex()
	if !ok {
		idx = -1
	}
	return RenderState{
		Messages:     w.conv.Messages(),
		State:        w.conv.State(),
		Visible:      w.panel.Visible(),
		Input:        w.conv.Input(),
		Epoch:        w.conv.Epoch(),
		PendingIndex: idx,
	}
}

func (w *Widget) emit(ev Event) {
	ev.Messages = w.conv.Len()
	ev.Time = w.now()
	w.sink.PublishEvent(ev)
}
