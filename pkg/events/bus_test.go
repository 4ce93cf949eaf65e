package events

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/chat-widget/pkg/widget"
)

type recorder struct {
	mu     sync.Mutex
	events []widget.Event
}

func (r *recorder) handle(ev widget.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) snapshot() []widget.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]widget.Event(nil), r.events...)
}

func startBus(t *testing.T, b *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = b.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("bus did not stop")
		}
	})
	select {
	case <-b.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not start")
	}
}

func TestBus_DeliversWidgetEvents(t *testing.T) {
	b, err := NewBus(WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	rec := &recorder{}
	b.AddHandler("recorder", rec.handle)
	startBus(t, b)

	w := widget.New(widget.SenderFunc(func(ctx context.Context, text string) (string, error) {
		return "hello back", nil
	}), widget.WithEventSink(b))

	w.Toggle()
	ex := w.Submit("hello")
	require.NotNil(t, ex)
	require.True(t, w.Apply(ex.Run(context.Background())))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 5*time.Second, 10*time.Millisecond)

	// gochannel does not preserve delivery order
	byType := map[widget.EventType]widget.Event{}
	for _, ev := range rec.snapshot() {
		byType[ev.Type] = ev
	}
	require.True(t, byType[widget.EventPanelVisibility].Visible)
	require.Equal(t, ex.ID, byType[widget.EventExchangeStarted].ExchangeID)
	resolved := byType[widget.EventExchangeResolved]
	require.Equal(t, ex.ID, resolved.ExchangeID)
	require.False(t, resolved.Failed)
	require.Equal(t, 3, resolved.Messages)
}

func TestBus_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	b, err := NewBus(WithLogger(zerolog.Nop()), WithTopic("quiet"))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.Equal(t, "quiet", b.Topic())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.PublishEvent(widget.Event{Type: widget.EventConversationReset})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publishing blocked")
	}
}

func TestBus_PublishAfterCloseIsSilent(t *testing.T) {
	b, err := NewBus(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	require.NotPanics(t, func() {
		b.PublishEvent(widget.Event{Type: widget.EventConversationReset})
	})
}

func TestDecode(t *testing.T) {
	_, err := Decode(message.NewMessage("1", []byte(`not json`)))
	require.Error(t, err)

	_, err = Decode(message.NewMessage("2", []byte(`{"epoch":1}`)))
	require.Error(t, err)

	ev, err := Decode(message.NewMessage("3", []byte(`{"type":"exchange.resolved","failed":true,"reason":"timeout","epoch":2}`)))
	require.NoError(t, err)
	require.Equal(t, widget.EventExchangeResolved, ev.Type)
	require.True(t, ev.Failed)
	require.Equal(t, "timeout", ev.Reason)
	require.Equal(t, uint64(2), ev.Epoch)
}

func TestStats(t *testing.T) {
	var s Stats
	for _, ev := range []widget.Event{
		{Type: widget.EventExchangeStarted},
		{Type: widget.EventExchangeResolved},
		{Type: widget.EventExchangeStarted},
		{Type: widget.EventExchangeResolved, Failed: true},
		{Type: widget.EventExchangeStarted},
		{Type: widget.EventConversationReset},
		{Type: widget.EventExchangeDiscarded},
		{Type: widget.EventExchangeStarted},
		{Type: widget.EventPanelVisibility},
	} {
		s.Apply(ev)
	}
	require.Equal(t, Stats{Started: 4, Answered: 1, Failed: 1, Discarded: 1, Resets: 1}, s)
	require.Equal(t, 1, s.InFlight())
	require.Equal(t, "4 sent, 1 answered, 1 failed", s.String())
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := LogHandler(zerolog.New(&buf).Level(zerolog.DebugLevel))

	require.NoError(t, h(widget.Event{
		Type:       widget.EventExchangeResolved,
		ExchangeID: "abc",
		Failed:     true,
		Reason:     "network",
		Epoch:      1,
		Messages:   3,
	}))
	out := buf.String()
	require.Contains(t, out, `"level":"info"`)
	require.Contains(t, out, `"event":"exchange.resolved"`)
	require.Contains(t, out, `"exchange_id":"abc"`)
	require.Contains(t, out, `"reason":"network"`)
}

func TestWatermillLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWatermillLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)).
		With(map[string]interface{}{"handler": "ui"})

	l.Error("boom", context.Canceled, nil)
	l.Info("started", nil)
	out := buf.String()
	require.Contains(t, out, `"handler":"ui"`)
	require.Contains(t, out, `"level":"error"`)
	require.Contains(t, out, `"error":"context canceled"`)
	require.Contains(t, out, `"message":"started"`)
}
