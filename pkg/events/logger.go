package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter routes watermill's own logging into zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = zerologAdapter{}

// NewWatermillLogger wraps logger so it can be handed to watermill
// publishers, subscribers and routers.
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return zerologAdapter{logger: logger}
}

func (z zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// Watermill is chatty at info level, so its info lines go to debug.
func (z zerologAdapter) Info(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	z.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{logger: z.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
