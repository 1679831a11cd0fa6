package definition

import (
	"github.com/sirupsen/logrus"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// NewDefaultLogger builds the logger used when the caller does not
// provide its own types.Logger implementation. Fields are attached
// once up front so every log line carries them.
func NewDefaultLogger(fields logrus.Fields) types.Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &DefaultLogger{entry: base.WithFields(fields)}
}

// DefaultLogger adapts a *logrus.Entry to types.Logger.
type DefaultLogger struct {
	entry *logrus.Entry
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

func (l *DefaultLogger) Fatalf(format string, v ...interface{}) {
	l.entry.Fatalf(format, v...)
}

// ToggleDebug switches the underlying logrus level between Info and
// Debug, matching the teacher's DefaultLogger.ToggleDebug behavior.
func (l *DefaultLogger) ToggleDebug(enabled bool) {
	if enabled {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}
