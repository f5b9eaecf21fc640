package hostenv

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fpang/stitchy/internal/stitcherr"
)

// Tag is the fixed tag every diagnostic is written under.
const Tag = "StitchyMobile"

// Logger forwards progress messages to the host's log facility. One Logger
// is acquired per call and passed explicitly to every stage.
type Logger struct {
	sink LogSink
	log  zerolog.Logger
}

// NewLogger acquires the host log sink. The call cannot proceed without it.
func NewLogger(env Env, logger zerolog.Logger) (*Logger, error) {
	sink, err := env.LogSink(Tag)
	if err != nil {
		return nil, stitcherr.Boundary(err, "failed to acquire host log sink")
	}
	return &Logger{sink: sink, log: logger}, nil
}

// Log writes one message to the host. The message is mirrored to the
// process logger at debug level.
func (l *Logger) Log(message string) error {
	l.log.Debug().Str("tag", Tag).Msg(message)
	if err := l.sink.Debug(message); err != nil {
		return stitcherr.Boundary(err, "failed to write to host log")
	}
	return nil
}

// Logf formats and writes one message to the host.
func (l *Logger) Logf(format string, args ...any) error {
	return l.Log(fmt.Sprintf(format, args...))
}
