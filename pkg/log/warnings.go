package log

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/knngo/pkg/errors"
)

// EnableWarningBridge routes warnings raised through pkg/errors.Warn to a
// zerolog logger. Warning types implementing zerolog.LogObjectMarshaler are
// emitted as structured objects, everything else as a plain message.
func EnableWarningBridge() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.Object("warning", obj).Msg(warning.Error())
			return
		}
		ev.Msg(warning.Error())
	})
}
