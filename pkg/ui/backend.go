package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/events"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

// ResolvedMsg carries the outcome of an exchange back into the update loop.
type ResolvedMsg struct {
	widget.Resolution
}

// EventMsg is a widget event delivered through the event bus.
type EventMsg widget.Event

// Backend runs exchanges off the update loop. The only state it keeps is the
// context used to abandon in-flight requests when the program exits.
type Backend struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBackend(ctx context.Context) *Backend {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Backend{ctx: ctx, cancel: cancel}
}

// Start returns a command performing the exchange. The command always
// produces a ResolvedMsg, even when the request fails or is abandoned.
func (b *Backend) Start(ex *widget.Exchange) tea.Cmd {
	if ex == nil {
		return nil
	}
	ctx := b.ctx
	return func() tea.Msg {
		return ResolvedMsg{Resolution: ex.Run(ctx)}
	}
}

// Interrupt abandons every in-flight request. Their resolutions still arrive
// and resolve the placeholder as failures.
func (b *Backend) Interrupt() {
	if b.ctx.Err() == nil {
		log.Debug().Str("component", "ui").Msg("interrupting in-flight exchanges")
	}
	b.cancel()
}

// Sender is the part of *tea.Program the event forwarder needs.
type Sender interface {
	Send(msg tea.Msg)
}

// EventForwardFunc forwards bus events into the bubbletea program so the
// model can keep its exchange tally.
func EventForwardFunc(p Sender) events.HandlerFunc {
	return func(ev widget.Event) error {
		log.Trace().Str("component", "ui").Str("event", string(ev.Type)).Msg("forwarding event to UI")
		p.Send(EventMsg(ev))
		return nil
	}
}
