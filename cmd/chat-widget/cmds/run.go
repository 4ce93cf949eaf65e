package cmds

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/chat-widget/pkg/chatrunner"
	"github.com/go-go-golems/chat-widget/pkg/ui"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

func addModeFlag(cmd *cobra.Command) {
	cmd.Flags().String("mode", string(chatrunner.RunModeAuto), "interface to use: auto, chat or line")
}

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the chat panel",
		Long: "Open the chat panel. When stdin or stdout is not a terminal the widget\n" +
			"falls back to a line mode that reads one question per line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd)
		},
	}
	addModeFlag(cmd)
	return cmd
}

func newAskCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSessionWith(cmd, chatrunner.RunModeBlocking, strings.Join(args, " "))
		},
	}
}

func (a *app) runSession(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	return a.runSessionWith(cmd, chatrunner.RunMode(mode), "")
}

func (a *app) runSessionWith(cmd *cobra.Command, mode chatrunner.RunMode, question string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	bus, err := a.bus()
	if err != nil {
		return err
	}

	s := a.settings
	builder := chatrunner.NewChatBuilder().
		WithContext(cmd.Context()).
		WithSender(client).
		WithInput(cmd.InOrStdin()).
		WithOutputWriter(cmd.OutOrStdout()).
		WithMode(mode).
		WithQuestion(question).
		WithEventBus(bus).
		WithWidgetOptions(widget.WithGreeting(s.Greeting)).
		WithUIOptions(
			ui.WithTitle(s.Title),
			ui.WithPlaceholder(s.Placeholder),
			ui.WithMarkdownStyle(s.MarkdownStyle),
			ui.WithStartOpen(s.StartOpen),
		).
		WithProgramOptions(tea.WithAltScreen())

	session, err := builder.Build()
	if err != nil {
		_ = bus.Close()
		return err
	}
	if session.Mode() == chatrunner.RunModeChat {
		a.quietLogs()
	}
	return session.Run()
}
