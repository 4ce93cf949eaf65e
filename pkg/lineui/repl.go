package lineui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/widget"
)

const (
	maxLineBytes = 1 << 20

	cmdReset = "/reset"
	cmdQuit  = "/quit"
	cmdExit  = "/exit"
	cmdHelp  = "/help"
)

type Option func(*REPL)

func WithPrompt(prompt string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

func WithBotPrefix(prefix string) Option {
	return func(r *REPL) { r.botPrefix = prefix }
}

// REPL drives a widget from a line-oriented reader, one exchange at a time.
// It is used when the terminal cannot host the full-screen panel, e.g. when
// input or output is piped.
type REPL struct {
	w         *widget.Widget
	in        io.Reader
	out       io.Writer
	prompt    string
	botPrefix string
}

func New(w *widget.Widget, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		w:         w,
		in:        in,
		out:       out,
		prompt:    "> ",
		botPrefix: "bot: ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads questions until EOF, /quit or ctx is done. Failed exchanges are
// shown like in the panel and do not stop the loop.
func (r *REPL) Run(ctx context.Context) error {
	r.w.SetVisible(true)
	defer r.w.Minimize()

	if err := r.printBot(r.w.Conversation().Greeting()); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := io.WriteString(r.out, r.prompt); err != nil {
			return errors.Wrap(err, "write prompt")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		switch strings.TrimSpace(line) {
		case cmdQuit, cmdExit:
			return nil
		case cmdReset:
			// same as the panel's close button, then back to the prompt
			r.w.Close()
			r.w.SetVisible(true)
			if err := r.printBot(r.w.Conversation().Greeting()); err != nil {
				return err
			}
			continue
		case cmdHelp:
			if _, err := fmt.Fprintf(r.out, "%s starts over, %s leaves\n", cmdReset, cmdQuit); err != nil {
				return errors.Wrap(err, "write help")
			}
			continue
		}

		r.w.SetInput(line)
		ex := r.w.SubmitInput()
		if ex == nil {
			continue
		}
		r.w.Apply(ex.Run(ctx))

		last := r.w.Conversation().Last()
		if err := r.printBot(last.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}
	log.Debug().Str("component", "lineui").Msg("input closed")
	return nil
}

func (r *REPL) printBot(text string) error {
	if _, err := fmt.Fprintf(r.out, "%s%s\n", r.botPrefix, text); err != nil {
		return errors.Wrap(err, "write answer")
	}
	return nil
}
