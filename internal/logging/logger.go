// Package logging defines the logger used by the sampler core and the CLI.
//
// The core only ever sees the Logger interface. Concrete backends live in
// subpackages so that importing the core does not start a backend's
// background goroutines.
package logging

// Logger is the logging surface the sampler depends on.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return nopLogger{}
}
