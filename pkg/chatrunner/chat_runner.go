package chatrunner

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/chat-widget/pkg/events"
	"github.com/go-go-golems/chat-widget/pkg/lineui"
	"github.com/go-go-golems/chat-widget/pkg/ui"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

// RunMode defines how a chat session talks to the user.
type RunMode string

const (
	// RunModeChat runs the full-screen panel.
	RunModeChat RunMode = "chat"
	// RunModeLine reads questions line by line from the input reader.
	RunModeLine RunMode = "line"
	// RunModeBlocking asks a single question and prints the answer.
	RunModeBlocking RunMode = "blocking"
	// RunModeAuto picks chat when both ends are terminals, line otherwise.
	RunModeAuto RunMode = "auto"
)

// ErrExchangeFailed is returned by blocking runs whose only exchange failed.
var ErrExchangeFailed = errors.New("the assistant could not answer")

// ChatSession holds the validated configuration and executes the chat logic.
// It is created by ChatBuilder.
type ChatSession struct {
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
}

func (cs *ChatSession) Mode() RunMode { return cs.mode }

// Run executes the session in its configured mode. The event bus, if any,
// runs alongside and is closed when the session ends.
func (cs *ChatSession) Run() error {
	if cs.bus == nil {
		return cs.runMode(cs.ctx)
	}

	eg, ctx := errgroup.WithContext(cs.ctx)
	ctx, cancel := context.WithCancel(ctx)

	stop := func() {
		cancel()
		log.Debug().Str("component", "chatrunner").Msg("closing event bus")
		if err := cs.bus.Close(); err != nil {
			log.Debug().Err(err).Str("component", "chatrunner").Msg("event bus close failed")
		}
	}

	eg.Go(func() error {
		defer stop()
		return cs.bus.Run(ctx)
	})

	eg.Go(func() error {
		defer stop()
		select {
		case <-cs.bus.Running():
		case <-ctx.Done():
			return nil
		}
		return cs.runMode(ctx)
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) && cs.ctx.Err() != nil {
		return nil
	}
	return err
}

func (cs *ChatSession) runMode(ctx context.Context) error {
	w := widget.New(cs.sender, cs.widgetOptions...)
	switch cs.mode {
	case RunModeChat:
		return cs.runChat(ctx, w)
	case RunModeLine:
		return lineui.New(w, cs.input, cs.output).Run(ctx)
	case RunModeBlocking:
		return cs.runBlocking(ctx, w)
	default:
		return errors.Errorf("unknown run mode: %v", cs.mode)
	}
}

func (cs *ChatSession) runChat(ctx context.Context, w *widget.Widget) error {
	backend := ui.NewBackend(ctx)
	opts := append([]ui.Option{ui.WithBackend(backend)}, cs.uiOptions...)
	model := ui.NewModel(w, opts...)

	programOptions := append([]tea.ProgramOption{tea.WithContext(ctx)}, cs.programOptions...)
	p := tea.NewProgram(model, programOptions...)

	if cs.bus != nil {
		cs.bus.AddHandler("ui", ui.EventForwardFunc(p))
		if err := cs.bus.RunHandlers(ctx); err != nil {
			return errors.Wrap(err, "failed to run event handlers")
		}
	}

	log.Debug().Str("component", "chatrunner").Msg("starting bubbletea program")
	_, err := p.Run()
	backend.Interrupt()
	log.Debug().Err(err).Str("component", "chatrunner").Msg("bubbletea program finished")

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (cs *ChatSession) runBlocking(ctx context.Context, w *widget.Widget) error {
	ex := w.Submit(cs.question)
	if ex == nil {
		return errors.New("question is empty")
	}
	res := ex.Run(ctx)
	w.Apply(res)

	if _, err := fmt.Fprintln(cs.output, w.Conversation().Last().Content); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	if res.Outcome.Failed() {
		return errors.Wrap(ErrExchangeFailed, res.Outcome.Err().Error())
	}
	return nil
}

// ResolveMode turns RunModeAuto into chat or line depending on whether the
// given files are terminals.
func ResolveMode(mode RunMode, in, out *os.File) RunMode {
	if mode != RunModeAuto {
		return mode
	}
	if isTerminal(in) && isTerminal(out) {
		return RunModeChat
	}
	log.Debug().Str("component", "chatrunner").Msg("not a terminal, using line mode")
	return RunModeLine
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
