package widget

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation_SeedsGreeting(t *testing.T) {
	c := NewConversation("hi there")
	require.Equal(t, []Message{BotMessage("hi there")}, c.Messages())
	require.Equal(t, StateIdle, c.State())
	require.Equal(t, uint64(0), c.Epoch())
	_, ok := c.PendingIndex()
	require.False(t, ok)
}

func TestNewConversation_BlankGreetingFallsBackToDefault(t *testing.T) {
	c := NewConversation("   ")
	require.Equal(t, DefaultGreeting, c.Greeting())
	require.Equal(t, BotMessage(DefaultGreeting), c.Last())
}

func TestSubmit_AppendsUserThenPlaceholder(t *testing.T) {
	inputs := []string{"hi", "  what is 6*7  ", "\tmulti\nline\n"}
	for _, in := range inputs {
		c := NewConversation("")
		c.SetInput(in)

		p, ok := c.Submit(in)
		require.True(t, ok, in)

		msgs := c.Messages()
		require.Len(t, msgs, 3, in)
		assert.Equal(t, UserMessage(p.Text), msgs[1])
		assert.Equal(t, BotMessage(PlaceholderContent), msgs[2])
		assert.Equal(t, StateSending, c.State())
		assert.Equal(t, "", c.Input())
		assert.Equal(t, c.Epoch(), p.Epoch)

		idx, ok := c.PendingIndex()
		require.True(t, ok)
		assert.Equal(t, 2, idx)
	}
}

func TestSubmit_TrimsText(t *testing.T) {
	c := NewConversation("")
	p, ok := c.Submit("   what is 6*7 \n")
	require.True(t, ok)
	require.Equal(t, "what is 6*7", p.Text)
	require.Equal(t, UserMessage("what is 6*7"), c.Messages()[1])
}

func TestSubmit_BlankInputIsNoop(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		c := NewConversation("")
		c.SetInput(in)

		_, ok := c.Submit(in)
		require.False(t, ok)
		require.Len(t, c.Messages(), 1)
		require.Equal(t, StateIdle, c.State())
		require.Equal(t, in, c.Input(), "a skipped submit must not touch the input buffer")
	}
}

func TestSubmit_RejectedWhileSending(t *testing.T) {
	c := NewConversation("")
	_, ok := c.Submit("first")
	require.True(t, ok)

	c.SetInput("second")
	_, ok = c.Submit("second")
	require.False(t, ok)
	_, ok = c.SubmitInput()
	require.False(t, ok)

	require.Len(t, c.Messages(), 3)
	require.Equal(t, "second", c.Input())
	require.Equal(t, StateSending, c.State())
}

func TestResolve_SuccessReplacesPlaceholder(t *testing.T) {
	c := NewConversation("")
	p, ok := c.Submit("what is 6*7")
	require.True(t, ok)

	require.NoError(t, c.Resolve(p.Epoch, Success("42")))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, UserMessage("what is 6*7"), msgs[1])
	require.Equal(t, BotMessage("42"), msgs[2])
	require.Equal(t, StateIdle, c.State())
	_, pending := c.PendingIndex()
	require.False(t, pending)
}

func TestResolve_FailureUsesFallbackText(t *testing.T) {
	c := NewConversation("")
	p, _ := c.Submit("hello")

	require.NoError(t, c.Resolve(p.Epoch, Failure(errors.New("boom"))))
	require.Equal(t, FailedMessage(ErrorContent), c.Last())
	require.Equal(t, StateIdle, c.State())
}

func TestResolve_AnswerMatchingErrorTextIsNotFailed(t *testing.T) {
	c := NewConversation("")
	p, _ := c.Submit("what does the error say?")

	require.NoError(t, c.Resolve(p.Epoch, Success(ErrorContent)))
	require.Equal(t, ErrorContent, c.Last().Content)
	require.False(t, c.Last().Failed)
}

func TestResolve_FailureWithNilErrorIsStillFailure(t *testing.T) {
	o := Failure(nil)
	require.True(t, o.Failed())
	require.Error(t, o.Err())
	require.Equal(t, ErrorContent, o.Content())
}

func TestResolve_WithoutPendingExchange(t *testing.T) {
	c := NewConversation("")
	err := c.Resolve(c.Epoch(), Success("orphan"))
	require.ErrorIs(t, err, ErrNothingPending)
	require.Len(t, c.Messages(), 1)

	p, _ := c.Submit("q")
	require.NoError(t, c.Resolve(p.Epoch, Success("a")))
	require.ErrorIs(t, c.Resolve(p.Epoch, Success("again")), ErrNothingPending)
	require.Equal(t, BotMessage("a"), c.Last())
}

func TestReset_RestoresGreetingAndBumpsEpoch(t *testing.T) {
	c := NewConversation("welcome")
	for _, q := range []string{"a", "b", "c"} {
		p, ok := c.Submit(q)
		require.True(t, ok)
		require.NoError(t, c.Resolve(p.Epoch, Success(q+"!")))
	}
	require.Len(t, c.Messages(), 7)
	c.SetInput("draft")

	c.Reset()

	require.Equal(t, []Message{BotMessage("welcome")}, c.Messages())
	require.Equal(t, StateIdle, c.State())
	require.Equal(t, "", c.Input())
	require.Equal(t, uint64(1), c.Epoch())
}

func TestReset_DiscardsLateResolution(t *testing.T) {
	c := NewConversation("welcome")
	p, _ := c.Submit("slow question")

	c.Reset()
	err := c.Resolve(p.Epoch, Success("late answer"))
	require.ErrorIs(t, err, ErrStaleResolution)
	require.Equal(t, []Message{BotMessage("welcome")}, c.Messages())
	require.Equal(t, StateIdle, c.State())

	// a new exchange in the new epoch is unaffected by the stale one
	p2, ok := c.Submit("fresh question")
	require.True(t, ok)
	require.ErrorIs(t, c.Resolve(p.Epoch, Success("late answer")), ErrStaleResolution)
	require.NoError(t, c.Resolve(p2.Epoch, Success("fresh answer")))
	require.Equal(t, BotMessage("fresh answer"), c.Last())
}

func TestEndToEnd_GreetingSubmitResolve(t *testing.T) {
	c := NewConversation("")
	require.Equal(t, 1, c.Len())

	p, ok := c.Submit("hi")
	require.True(t, ok)
	require.Equal(t, 3, c.Len())
	require.Equal(t, BotMessage(PlaceholderContent), c.Last())

	require.NoError(t, c.Resolve(p.Epoch, Success("hello!")))
	require.Equal(t, 3, c.Len())
	require.Equal(t, BotMessage("hello!"), c.Last())
}

func TestLastBotReply_SkipsPlaceholder(t *testing.T) {
	c := NewConversation("greet")
	p, _ := c.Submit("q1")
	require.NoError(t, c.Resolve(p.Epoch, Success("a1")))
	_, _ = c.Submit("q2")

	m, ok := c.LastBotReply()
	require.True(t, ok)
	require.Equal(t, "a1", m.Content)
}

func TestRequestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "sending", StateSending.String())
	assert.Equal(t, "unknown", RequestState(7).String())
}
