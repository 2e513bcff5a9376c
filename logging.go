package scriptsave

import "log/slog"

// Diagnostic describes one substitution made while loading. Situation and
// Consequence form the message pair written for it.
type Diagnostic struct {
	LoadID      string
	Slot        int
	Pass        Pass
	Outcome     Outcome
	Requested   ScriptIdentity
	Resolved    ScriptIdentity
	Situation   string
	Consequence string
}

// DiagnosticLogger records substitution diagnostics.
type DiagnosticLogger interface {
	LogDiagnostic(Diagnostic)
}

// DiagnosticLoggerFunc adapts a function to DiagnosticLogger.
type DiagnosticLoggerFunc func(Diagnostic)

// LogDiagnostic implements DiagnosticLogger.
func (f DiagnosticLoggerFunc) LogDiagnostic(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopDiagnosticLogger struct{}

func (noopDiagnosticLogger) LogDiagnostic(Diagnostic) {}

type slogDiagnosticLogger struct {
	logger *slog.Logger
}

// NewSlogLogger writes each diagnostic as two warning lines, situation then
// consequence, sharing the same structured attributes.
func NewSlogLogger(logger *slog.Logger) DiagnosticLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogDiagnosticLogger{logger: logger.With(slog.String("component", "scriptsave"))}
}

func (l slogDiagnosticLogger) LogDiagnostic(d Diagnostic) {
	attrs := []any{
		slog.Int("slot", d.Slot),
		slog.String("pass", d.Pass.String()),
		slog.String("outcome", d.Outcome.String()),
		slog.String("requested", d.Requested.String()),
		slog.String("resolved", d.Resolved.String()),
	}
	if d.LoadID != "" {
		attrs = append(attrs, slog.String("load_id", d.LoadID))
	}
	l.logger.Warn(d.Situation, attrs...)
	l.logger.Warn(d.Consequence, attrs...)
}
