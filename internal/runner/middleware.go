package runner

import "context"

// FailureLogger logs failed deliveries.
type FailureLogger interface {
	LogFailure(err error)
}

// loggingProducer wraps a Producer with failure logging.
type loggingProducer struct {
	inner  Producer
	logger FailureLogger
}

// WithLogging wraps a Producer to log failures. Cancellation at the end of a
// run is not logged.
func WithLogging(p Producer, logger FailureLogger) Producer {
	if logger == nil {
		return p
	}
	return &loggingProducer{
		inner:  p,
		logger: logger,
	}
}

func (l *loggingProducer) Produce(ctx context.Context) error {
	err := l.inner.Produce(ctx)
	if err != nil && ctx.Err() == nil {
		l.logger.LogFailure(err)
	}
	return err
}
