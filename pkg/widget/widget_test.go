package widget

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) PublishEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recordingSink) types() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type categoryErr struct{ category string }

func (e categoryErr) Error() string         { return "transport " + e.category + " error" }
func (e categoryErr) ErrorCategory() string { return e.category }

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func echoSender() Sender {
	return SenderFunc(func(_ context.Context, text string) (string, error) {
		return "echo: " + text, nil
	})
}

func TestWidget_SubmitRunApply(t *testing.T) {
	sink := &recordingSink{}
	w := New(echoSender(), WithGreeting("hey"), WithEventSink(sink), WithClock(fixedClock()))

	w.SetInput("  hi  ")
	ex := w.SubmitInput()
	require.NotNil(t, ex)
	require.NotEmpty(t, ex.ID)
	require.Equal(t, "hi", ex.Text)

	snap := w.Snapshot()
	require.True(t, snap.Sending())
	require.Len(t, snap.Messages, 3)
	require.True(t, snap.IsPending(2))
	require.Equal(t, "", snap.Input)

	res := ex.Run(context.Background())
	require.Equal(t, ex.ID, res.ExchangeID)
	require.False(t, res.Outcome.Failed())

	require.True(t, w.Apply(res))
	snap = w.Snapshot()
	require.False(t, snap.Sending())
	require.Equal(t, -1, snap.PendingIndex)
	require.Equal(t, []Message{BotMessage("hey"), UserMessage("hi"), BotMessage("echo: hi")}, snap.Messages)

	require.Equal(t, []EventType{EventExchangeStarted, EventExchangeResolved}, sink.types())
	require.Equal(t, 3, sink.events[1].Messages)
	require.Equal(t, fixedClock()(), sink.events[0].Time)
}

func TestWidget_SubmitSkipsBlankAndReentrant(t *testing.T) {
	sink := &recordingSink{}
	w := New(echoSender(), WithEventSink(sink))

	require.Nil(t, w.Submit(""))
	require.Nil(t, w.Submit("   "))
	require.Empty(t, sink.events)

	ex := w.Submit("first")
	require.NotNil(t, ex)
	require.Nil(t, w.Submit("second"))
	require.Len(t, w.Snapshot().Messages, 3)
	require.Len(t, sink.events, 1)
}

func TestWidget_FailureCarriesCategory(t *testing.T) {
	sink := &recordingSink{}
	sender := SenderFunc(func(context.Context, string) (string, error) {
		return "", errors.Wrap(categoryErr{category: "status"}, "post chat")
	})
	w := New(sender, WithEventSink(sink))

	ex := w.Submit("q")
	res := ex.Run(context.Background())
	require.True(t, res.Outcome.Failed())
	require.True(t, w.Apply(res))

	require.Equal(t, FailedMessage(ErrorContent), w.Conversation().Last())
	last := sink.events[len(sink.events)-1]
	require.Equal(t, EventExchangeResolved, last.Type)
	require.True(t, last.Failed)
	require.Equal(t, "status", last.Reason)

	// the widget stays usable after a failed exchange
	require.NotNil(t, w.Submit("again"))
}

func TestWidget_PanickingSenderBecomesFailure(t *testing.T) {
	sender := SenderFunc(func(context.Context, string) (string, error) {
		panic("kaboom")
	})
	w := New(sender)
	ex := w.Submit("q")

	var res Resolution
	require.NotPanics(t, func() { res = ex.Run(context.Background()) })
	require.True(t, res.Outcome.Failed())
	require.True(t, w.Apply(res))
	require.Equal(t, ErrorContent, w.Conversation().Last().Content)
}

func TestWidget_NilSenderFails(t *testing.T) {
	w := New(nil)
	ex := w.Submit("q")
	res := ex.Run(context.Background())
	require.True(t, res.Outcome.Failed())
}

func TestWidget_CloseResetsAndDiscardsLateAnswer(t *testing.T) {
	sink := &recordingSink{}
	w := New(echoSender(), WithGreeting("hey"), WithEventSink(sink))
	w.Toggle()
	require.True(t, w.Visible())

	ex := w.Submit("slow")
	w.Close()
	require.False(t, w.Visible())
	require.Equal(t, []Message{BotMessage("hey")}, w.Snapshot().Messages)

	require.False(t, w.Apply(ex.Run(context.Background())))
	require.Equal(t, []Message{BotMessage("hey")}, w.Snapshot().Messages)

	assert.Equal(t, []EventType{
		EventPanelVisibility,
		EventExchangeStarted,
		EventPanelVisibility,
		EventConversationReset,
		EventExchangeDiscarded,
	}, sink.types())
}

func TestWidget_MinimizeKeepsConversation(t *testing.T) {
	w := New(echoSender())
	w.SetVisible(true)
	ex := w.Submit("q")

	w.Minimize()
	require.False(t, w.Visible())
	require.True(t, w.Apply(ex.Run(context.Background())))
	require.Equal(t, BotMessage("echo: q"), w.Conversation().Last())
}

func TestWidget_SetVisibleOnlyEmitsOnChange(t *testing.T) {
	sink := &recordingSink{}
	w := New(echoSender(), WithEventSink(sink))
	w.SetVisible(false)
	require.Empty(t, sink.events)
	w.SetVisible(true)
	w.SetVisible(true)
	require.Len(t, sink.events, 1)
	require.True(t, sink.events[0].Visible)
}

func TestWidget_ToggleIndependentOfConversation(t *testing.T) {
	w := New(echoSender())
	ex := w.Submit("q")
	require.True(t, w.Toggle())
	require.False(t, w.Toggle())
	require.True(t, w.Snapshot().Sending())
	require.True(t, w.Apply(ex.Run(context.Background())))
}

func TestWidget_RunHonoursContext(t *testing.T) {
	sender := SenderFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	w := New(sender)
	ex := w.Submit("q")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := ex.Run(ctx)
	require.True(t, res.Outcome.Failed())
	require.ErrorIs(t, res.Outcome.Err(), context.Canceled)
}
