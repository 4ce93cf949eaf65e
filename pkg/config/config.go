package config

import (
	"os"
	"strings"
	"time"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-go-golems/chat-widget/pkg/redisstream"
	"github.com/go-go-golems/chat-widget/pkg/transport"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

const (
	AppName   = "chat-widget"
	EnvPrefix = "CHAT_WIDGET"
)

// Settings is the resolved configuration of the widget.
type Settings struct {
	BaseURL       string
	Timeout       time.Duration
	Greeting      string
	Title         string
	Placeholder   string
	MarkdownStyle string
	StartOpen     bool
	// LogFile is the --log-file of the logging layer, empty for stderr.
	LogFile string

	Events redisstream.Settings
}

// AddFlags registers the widget flags. The logging flags and --config come
// from clay.InitViper.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("env-file", ".env", "dotenv file to load before reading the environment")

	fs.String("base-url", "", "base URL of the assistant endpoint (POST {base-url}/chat)")
	fs.Duration("timeout", transport.DefaultTimeout, "timeout for a single chat request")
	fs.String("greeting", widget.DefaultGreeting, "greeting shown at the top of every conversation")
	fs.String("title", widget.DefaultTitle, "title of the chat panel")
	fs.String("placeholder", widget.DefaultPlaceholder, "placeholder of the input line")
	fs.String("markdown-style", "auto", "markdown style for bot messages (auto, dark, light, notty, ascii)")
	fs.Bool("start-open", false, "open the chat panel on start")

	redisstream.AddFlags(fs)
}

// InitViper registers the widget flags on root and hands them to clay, which
// adds the logging layer, binds the persistent flags to the global viper and
// reads $HOME/.chat-widget/config.yaml.
func InitViper(root *cobra.Command) error {
	AddFlags(root.PersistentFlags())
	if err := clay.InitViper(AppName, root); err != nil {
		return errors.Wrap(err, "init viper")
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	fs := root.PersistentFlags()
	if fs.Lookup("config") == nil {
		fs.String("config", "", "config file (default $HOME/.chat-widget/config.yaml)")
		if err := viper.BindPFlag("config", fs.Lookup("config")); err != nil {
			return errors.Wrap(err, "bind config flag")
		}
	}
	return nil
}

// Load layers the dotenv file and an explicit --config file over v and
// returns the settings. Call it once the flags are parsed.
func Load(v *viper.Viper) (*Settings, error) {
	if envFile := v.GetString("env-file"); envFile != "" {
		if err := LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}
	if cfgFile := v.GetString("config"); cfgFile != "" && cfgFile != v.ConfigFileUsed() {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", cfgFile)
		}
	}
	return FromViper(v), nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func FromViper(v *viper.Viper) *Settings {
	return &Settings{
		BaseURL:       strings.TrimSpace(v.GetString("base-url")),
		Timeout:       v.GetDuration("timeout"),
		Greeting:      v.GetString("greeting"),
		Title:         v.GetString("title"),
		Placeholder:   v.GetString("placeholder"),
		MarkdownStyle: v.GetString("markdown-style"),
		StartOpen:     v.GetBool("start-open"),
		LogFile:       strings.TrimSpace(v.GetString("log-file")),
		Events:        redisstream.FromViper(v),
	}
}

var markdownStyles = map[string]bool{"auto": true, "dark": true, "light": true, "notty": true, "ascii": true}

// Validate checks the settings needed to talk to the endpoint.
func (s *Settings) Validate() error {
	if s.BaseURL == "" {
		return errors.Errorf("no base URL configured: pass --base-url or set %s_BASE_URL", EnvPrefix)
	}
	if _, err := transport.EndpointURL(s.BaseURL); err != nil {
		return errors.Wrap(err, "invalid base URL")
	}
	if s.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.MarkdownStyle != "" && !markdownStyles[strings.ToLower(s.MarkdownStyle)] {
		return errors.Errorf("unknown markdown style %q", s.MarkdownStyle)
	}
	return s.Events.Validate()
}
