package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. Unknown levels fall back to info and are reported
// on the returned logger so a typo in LOG_LEVEL is visible at startup.
func New(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "food-shelter").Logger()
	if err != nil {
		logger.Warn().Str("log_level", level).Msg("unknown log level, using info")
	}
	return logger
}
