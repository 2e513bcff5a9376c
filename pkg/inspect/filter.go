package inspect

import (
	"fmt"
	"time"

	scriptsave "github.com/goliatone/go-scriptsave"
)

// FilterOption configures Filter.
type FilterOption func(*filterConfig)

type filterConfig struct {
	logger   EvaluatorLogger
	metadata map[string]any
	now      time.Time
}

// WithEvaluatorLogger records every evaluation made by Filter.
func WithEvaluatorLogger(logger EvaluatorLogger) FilterOption {
	return func(cfg *filterConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithMetadata exposes metadata to expressions.
func WithMetadata(metadata map[string]any) FilterOption {
	return func(cfg *filterConfig) {
		cfg.metadata = metadata
	}
}

// WithNow fixes the value of now for every record.
func WithNow(now time.Time) FilterOption {
	return func(cfg *filterConfig) {
		cfg.now = now
	}
}

// Filter returns the records for which expression evaluates to true. The
// expression is compiled once. An error on any record aborts the filter.
func Filter(records []scriptsave.SlotRecord, evaluator Evaluator, expression string, opts ...FilterOption) ([]scriptsave.SlotRecord, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("inspect: evaluator is required")
	}
	cfg := filterConfig{logger: noopEvaluatorLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	engine := engineName(evaluator)

	rule, err := evaluator.Compile(expression)
	if err != nil {
		cfg.logger.LogEvaluation(EvaluatorLogEvent{Engine: engine, Expr: expression, Err: err})
		return nil, err
	}

	matched := make([]scriptsave.SlotRecord, 0, len(records))
	for _, rec := range records {
		ctx := RecordContext(rec)
		ctx.Metadata = cfg.metadata
		ctx.Now = cfg.now

		start := time.Now()
		value, err := rule.Evaluate(ctx)
		if err == nil {
			if _, ok := value.(bool); !ok {
				err = wrapEvaluationError(engine, expression, ctx.label(), fmt.Errorf("%w: got %T", ErrNotBoolean, value))
			}
		}
		cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Target:   ctx.label(),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return nil, err
		}
		if value.(bool) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}
