package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/redisstream"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

// DefaultTopic carries all widget lifecycle events.
const DefaultTopic = "widget"

type Option func(*Bus)

func WithTopic(topic string) Option {
	return func(b *Bus) {
		if topic != "" {
			b.topic = topic
		}
	}
}

// WithRedis switches the bus to Redis Streams when s.Enabled is set.
func WithRedis(s redisstream.Settings) Option {
	return func(b *Bus) { b.redis = s }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// Bus publishes widget events on a watermill topic and dispatches them to
// handlers registered on its router. It implements widget.EventSink.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	router *message.Router
	topic  string
	redis  redisstream.Settings
	rs     *redisstream.Transport
	logger zerolog.Logger
}

var _ widget.EventSink = (*Bus)(nil)

// NewBus builds an in-memory bus, or a Redis Streams backed one when
// WithRedis carries enabled settings.
func NewBus(opts ...Option) (*Bus, error) {
	b := &Bus{
		topic:  DefaultTopic,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	wmLogger := NewWatermillLogger(b.logger.With().Str("component", "events").Logger())

	if b.redis.Enabled {
		rs, err := redisstream.Build(b.redis, wmLogger)
		if err != nil {
			return nil, err
		}
		b.rs = rs
		b.Publisher, b.Subscriber = rs.Publisher, rs.Subscriber
	} else {
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		b.Publisher, b.Subscriber = gc, gc
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		_ = b.closeTransport()
		return nil, errors.Wrap(err, "create event router")
	}
	b.router = router
	return b, nil
}

func (b *Bus) Topic() string { return b.topic }

// PublishEvent never blocks on consumers and never fails the caller:
// publishing errors are logged and the event is dropped.
func (b *Bus) PublishEvent(ev widget.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn().Err(err).Str("type", string(ev.Type)).Msg("could not encode widget event")
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event_type", string(ev.Type))
	if ev.ExchangeID != "" {
		msg.Metadata.Set("exchange_id", ev.ExchangeID)
	}
	if err := b.Publisher.Publish(b.topic, msg); err != nil {
		b.logger.Debug().Err(err).Str("type", string(ev.Type)).Msg("could not publish widget event")
	}
}

// HandlerFunc consumes one decoded widget event.
type HandlerFunc func(ev widget.Event) error

// AddHandler subscribes h to the bus topic. Handlers added after Run need a
// call to RunHandlers.
func (b *Bus) AddHandler(name string, h HandlerFunc) {
	b.router.AddConsumerHandler(name, b.topic, b.Subscriber, func(msg *message.Message) error {
		ev, err := Decode(msg)
		if err != nil {
			// a malformed payload is acked and skipped, retrying cannot fix it
			b.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable widget event")
			return nil
		}
		return h(ev)
	})
}

// Run blocks until ctx is cancelled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	if b.rs != nil {
		if err := b.rs.EnsureGroupAtTail(ctx, b.topic, b.redis.Group); err != nil {
			return err
		}
	}
	return b.router.Run(ctx)
}

func (b *Bus) RunHandlers(ctx context.Context) error {
	return b.router.RunHandlers(ctx)
}

// Running is closed once the router has started its handlers.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) IsRunning() bool {
	return b.router.IsRunning()
}

func (b *Bus) Close() error {
	err := b.router.Close()
	if cerr := b.closeTransport(); err == nil {
		err = cerr
	}
	return err
}

func (b *Bus) closeTransport() error {
	if b.rs != nil {
		return b.rs.Close()
	}
	if b.Publisher != nil {
		return b.Publisher.Close()
	}
	return nil
}

// Decode turns a bus message back into a widget event.
func Decode(msg *message.Message) (widget.Event, error) {
	var ev widget.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return widget.Event{}, errors.Wrap(err, "decode widget event")
	}
	if ev.Type == "" {
		return widget.Event{}, errors.New("widget event without type")
	}
	return ev, nil
}
