package events

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/go-go-golems/chat-widget/pkg/widget"
)

// LogHandler writes every widget event as a structured log line.
func LogHandler(logger zerolog.Logger) HandlerFunc {
	return func(ev widget.Event) error {
		e := logger.Debug()
		if ev.Failed || ev.Type == widget.EventExchangeDiscarded {
			e = logger.Info()
		}
		e = e.Str("event", string(ev.Type)).
			Uint64("epoch", ev.Epoch).
			Int("messages", ev.Messages)
		if ev.ExchangeID != "" {
			e = e.Str("exchange_id", ev.ExchangeID)
		}
		if ev.Reason != "" {
			e = e.Str("reason", ev.Reason)
		}
		if ev.Type == widget.EventPanelVisibility {
			e = e.Bool("visible", ev.Visible)
		}
		e.Time("at", ev.Time).Msg("widget event")
		return nil
	}
}

// Stats tallies exchanges as seen on the bus.
type Stats struct {
	Started   int
	Answered  int
	Failed    int
	Discarded int
	Resets    int
}

func (s *Stats) Apply(ev widget.Event) {
	switch ev.Type {
	case widget.EventExchangeStarted:
		s.Started++
	case widget.EventExchangeResolved:
		if ev.Failed {
			s.Failed++
		} else {
			s.Answered++
		}
	case widget.EventExchangeDiscarded:
		s.Discarded++
	case widget.EventConversationReset:
		s.Resets++
	case widget.EventPanelVisibility:
	}
}

func (s Stats) InFlight() int {
	return s.Started - s.Answered - s.Failed - s.Discarded
}

func (s Stats) String() string {
	return fmt.Sprintf("%d sent, %d answered, %d failed", s.Started, s.Answered, s.Failed)
}
