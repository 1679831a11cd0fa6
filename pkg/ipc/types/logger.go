package types

// Logger is the logging surface used throughout the router. It
// mirrors the teacher's definition.Logger shape so the default
// implementation and any caller-supplied logger are interchangeable.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}
