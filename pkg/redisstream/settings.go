package redisstream

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings holds Redis Streams transport configuration for widget events.
type Settings struct {
	Enabled  bool
	Addr     string
	Group    string
	Consumer string
}

// AddFlags registers the --events-redis-* flags.
func AddFlags(fs *pflag.FlagSet) {
	fs.Bool("events-redis-enabled", false, "publish widget events to Redis Streams instead of in memory")
	fs.String("events-redis-addr", "localhost:6379", "Redis address host:port")
	fs.String("events-redis-group", "chat-widget", "Redis consumer group")
	fs.String("events-redis-consumer", "widget-1", "Redis consumer name")
}

func FromViper(v *viper.Viper) Settings {
	return Settings{
		Enabled:  v.GetBool("events-redis-enabled"),
		Addr:     v.GetString("events-redis-addr"),
		Group:    v.GetString("events-redis-group"),
		Consumer: v.GetString("events-redis-consumer"),
	}
}

func (s Settings) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Addr == "" {
		return errors.New("events-redis-addr is required when Redis events are enabled")
	}
	if s.Group == "" || s.Consumer == "" {
		return errors.New("events-redis-group and events-redis-consumer must not be empty")
	}
	return nil
}
