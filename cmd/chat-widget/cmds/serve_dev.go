package cmds

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/chat-widget/pkg/devserver"
)

func newServeDevCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Serve a local stand-in for the assistant endpoint",
		Long: "serve-dev answers POST /chat like the production assistant does, from a YAML\n" +
			"keyword table (--answers) or by echoing the question. --fail-every and\n" +
			"--delay make it misbehave so the widget's error handling can be tried out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			if err := v.BindPFlags(cmd.LocalFlags()); err != nil {
				return errors.Wrap(err, "bind serve-dev flags")
			}
			var book *devserver.AnswerBook
			if path := v.GetString("answers"); path != "" {
				var err error
				if book, err = devserver.LoadAnswers(path); err != nil {
					return err
				}
			}
			srv, err := devserver.NewServer(devserver.Settings{
				Addr:      v.GetString("addr"),
				FailEvery: v.GetInt("fail-every"),
				FailMode:  v.GetString("fail-mode"),
				Delay:     v.GetDuration("delay"),
			}, book)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8000", "address to listen on")
	cmd.Flags().String("answers", "", "YAML file with canned answers")
	cmd.Flags().Int("fail-every", 0, "fail every Nth request (0 never fails)")
	cmd.Flags().String("fail-mode", devserver.FailModeStatus, "how to fail: status (HTTP 500) or parse (error body)")
	cmd.Flags().Duration("delay", time.Duration(0), "delay before every answer")
	return cmd
}
