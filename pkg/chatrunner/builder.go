package chatrunner

import (
	"context"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/go-go-golems/chat-widget/pkg/events"
	"github.com/go-go-golems/chat-widget/pkg/ui"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

// ChatBuilder collects the pieces of a chat session.
type ChatBuilder struct {
	ctx            context.Context
	sender         widget.Sender
	widgetOptions  []widget.Option
	uiOptions      []ui.Option
	programOptions []tea.ProgramOption
	mode           RunMode
	question       string
	input          io.Reader
	output         io.Writer
	bus            *events.Bus
	err            error
}

func NewChatBuilder() *ChatBuilder {
	return &ChatBuilder{
		ctx:    context.Background(),
		mode:   RunModeChat,
		input:  os.Stdin,
		output: os.Stdout,
	}
}

func (b *ChatBuilder) WithContext(ctx context.Context) *ChatBuilder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

// WithSender sets where questions go, usually a *transport.Client.
func (b *ChatBuilder) WithSender(s widget.Sender) *ChatBuilder {
	b.sender = s
	return b
}

func (b *ChatBuilder) WithWidgetOptions(opts ...widget.Option) *ChatBuilder {
	b.widgetOptions = append(b.widgetOptions, opts...)
	return b
}

func (b *ChatBuilder) WithUIOptions(opts ...ui.Option) *ChatBuilder {
	b.uiOptions = append(b.uiOptions, opts...)
	return b
}

func (b *ChatBuilder) WithProgramOptions(opts ...tea.ProgramOption) *ChatBuilder {
	b.programOptions = append(b.programOptions, opts...)
	return b
}

func (b *ChatBuilder) WithMode(mode RunMode) *ChatBuilder {
	switch mode {
	case RunModeChat, RunModeLine, RunModeBlocking:
		b.mode = mode
	case RunModeAuto:
		in, _ := b.input.(*os.File)
		out, _ := b.output.(*os.File)
		b.mode = ResolveMode(mode, in, out)
	default:
		b.err = errors.Errorf("invalid run mode: %s", mode)
	}
	return b
}

// WithQuestion sets the question of a blocking run.
func (b *ChatBuilder) WithQuestion(q string) *ChatBuilder {
	b.question = q
	return b
}

func (b *ChatBuilder) WithInput(r io.Reader) *ChatBuilder {
	if r != nil {
		b.input = r
	}
	return b
}

func (b *ChatBuilder) WithOutputWriter(w io.Writer) *ChatBuilder {
	if w != nil {
		b.output = w
	}
	return b
}

// WithEventBus publishes widget events on bus and runs it for the duration
// of the session.
func (b *ChatBuilder) WithEventBus(bus *events.Bus) *ChatBuilder {
	b.bus = bus
	return b
}

// Build validates the configuration and creates a ChatSession.
func (b *ChatBuilder) Build() (*ChatSession, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.sender == nil {
		return nil, errors.New("a sender is required")
	}
	if b.mode == RunModeBlocking && strings.TrimSpace(b.question) == "" {
		return nil, errors.New("blocking mode needs a question")
	}

	widgetOptions := append([]widget.Option{}, b.widgetOptions...)
	if b.bus != nil {
		widgetOptions = append(widgetOptions, widget.WithEventSink(b.bus))
	}

	return &ChatSession{
		ctx:            b.ctx,
		sender:         b.sender,
		widgetOptions:  widgetOptions,
		uiOptions:      b.uiOptions,
		programOptions: b.programOptions,
		mode:           b.mode,
		question:       b.question,
		input:          b.input,
		output:         b.output,
		bus:            b.bus,
	}, nil
}
