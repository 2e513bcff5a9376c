package inspect

import (
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes one evaluation attempt.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Target   string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// NewSlogEvaluatorLogger logs successful evaluations at debug level and
// failures as warnings.
func NewSlogEvaluatorLogger(logger *slog.Logger) EvaluatorLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		attrs := []any{
			slog.String("engine", event.Engine),
			slog.String("expr", event.Expr),
			slog.Duration("duration", event.Duration),
		}
		if event.Target != "" {
			attrs = append(attrs, slog.String("target", event.Target))
		}
		if event.Err != nil {
			logger.Warn("rule evaluation failed", append(attrs, slog.Any("error", event.Err))...)
			return
		}
		logger.Debug("rule evaluated", attrs...)
	})
}
