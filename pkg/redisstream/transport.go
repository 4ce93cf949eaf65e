package redisstream

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Transport bundles a publisher and a subscriber sharing one Redis client.
type Transport struct {
	Client     redis.UniversalClient
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Build connects the publisher and the consumer-group subscriber described by s.
func Build(s Settings, logger watermill.LoggerAdapter) (*Transport, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{Addr: s.Addr})
	marshaler := rstream.DefaultMarshallerUnmarshaller{}

	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, logger)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "create redis publisher")
	}

	sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  marshaler,
		ConsumerGroup: s.Group,
		Consumer:      s.Consumer,
	}, logger)
	if err != nil {
		_ = pub.Close()
		_ = client.Close()
		return nil, errors.Wrap(err, "create redis subscriber")
	}

	return &Transport{Client: client, Publisher: pub, Subscriber: sub}, nil
}

func (t *Transport) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{t.Subscriber, t.Publisher, t.Client} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EnsureGroupAtTail creates the consumer group for stream at the tail ($) if
// it does not exist yet, so a fresh consumer does not replay old events.
func (t *Transport) EnsureGroupAtTail(ctx context.Context, stream, group string) error {
	err := t.Client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return errors.Wrapf(err, "create consumer group %s on %s", group, stream)
	}
	log.Info().Str("stream", stream).Str("group", group).Msg("created redis consumer group at $ (tail)")
	return nil
}
