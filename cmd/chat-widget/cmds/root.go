package cmds

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/chat-widget/pkg/config"
	"github.com/go-go-golems/chat-widget/pkg/events"
	"github.com/go-go-golems/chat-widget/pkg/logging"
	"github.com/go-go-golems/chat-widget/pkg/transport"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	version  string
	settings *config.Settings
}

func NewRootCommand(version string) (*cobra.Command, error) {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:   "chat-widget",
		Short: "chat-widget is a terminal chat panel for a question answering endpoint",
		Long: "chat-widget opens a small chat panel in the terminal. Questions are posted to\n" +
			"{base-url}/chat and the answers are shown in the conversation.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd)
		},
	}
	if err := config.InitViper(rootCmd); err != nil {
		return nil, err
	}
	addModeFlag(rootCmd)

	rootCmd.AddCommand(
		newRunCommand(a),
		newAskCommand(a),
		newServeDevCommand(),
		newVersionCommand(a),
	)
	return rootCmd, nil
}

func (a *app) init(cmd *cobra.Command) error {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	a.settings = settings

	// reinitialize the logger now that --log-level and co are parsed
	if err := logging.Init(); err != nil {
		return errors.Wrap(err, "init logger")
	}
	log.Debug().Str("command", cmd.Name()).Str("config", viper.ConfigFileUsed()).Msg("configuration loaded")
	return nil
}

// quietLogs moves logging off stderr when the full-screen panel owns the
// terminal and no log file was configured.
func (a *app) quietLogs() {
	if logging.QuietUnlessFile(a.settings.LogFile) {
		log.Debug().Msg("logs discarded while the panel is open")
	}
}

func (a *app) client() (*transport.Client, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	return transport.NewClient(a.settings.BaseURL,
		transport.WithTimeout(a.settings.Timeout),
		transport.WithUserAgent("chat-widget/"+a.version),
	)
}

func (a *app) bus() (*events.Bus, error) {
	bus, err := events.NewBus(events.WithRedis(a.settings.Events))
	if err != nil {
		return nil, errors.Wrap(err, "create event bus")
	}
	bus.AddHandler("log", events.LogHandler(log.Logger.With().Str("component", "events").Logger()))
	return bus, nil
}
