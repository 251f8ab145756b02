// Package glogger adapts github.com/golang/glog to logging.Logger.
package glogger

import (
	"github.com/golang/glog"

	"github.com/torosent/msgsampler/internal/logging"
)

// DebugLevel is the glog verbosity at which Debugf output is emitted.
const DebugLevel glog.Level = 2

type glogLogger struct{}

// New returns a Logger backed by glog. Debugf is only emitted with -v=2 or higher.
func New() logging.Logger {
	return glogLogger{}
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.InfoDepth(1, logging.Message(format, args))
}

func (glogLogger) Warnf(format string, args ...interface{}) {
	glog.WarningDepth(1, logging.Message(format, args))
}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, logging.Message(format, args))
}

func (l glogLogger) Debugf(format string, args ...interface{}) {
	if l.debugEnabled() {
		glog.InfoDepth(1, logging.Message(format, args))
	}
}

func (glogLogger) debugEnabled() bool {
	return bool(glog.V(DebugLevel))
}
