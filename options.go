package scriptsave

import (
	"log/slog"

	"github.com/goliatone/go-scriptsave/pkg/activity"
	"github.com/google/uuid"
)

// Option configures a ChunkHandler.
type Option func(*handlerConfig)

type handlerConfig struct {
	maxSlots  int
	hostMode  func() HostMode
	logger    DiagnosticLogger
	hooks     activity.Hooks
	activity  activity.Config
	newLoadID func() string
}

func applyOptions(opts []Option) handlerConfig {
	cfg := handlerConfig{
		maxSlots:  DefaultMaxSlots,
		hostMode:  func() HostMode { return HostMode{} },
		logger:    NewSlogLogger(slog.Default()),
		activity:  activity.Config{Enabled: true, Channel: activity.DefaultChannel},
		newLoadID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithMaxSlots sets the number of script slots. Non-positive values are
// ignored.
func WithMaxSlots(n int) Option {
	return func(cfg *handlerConfig) {
		if n > 0 {
			cfg.maxSlots = n
		}
	}
}

// WithHostMode supplies the host predicates, queried once per load.
func WithHostMode(fn func() HostMode) Option {
	return func(cfg *handlerConfig) {
		if fn != nil {
			cfg.hostMode = fn
		}
	}
}

// WithDiagnosticLogger replaces the default slog-backed logger. A nil logger
// silences diagnostics.
func WithDiagnosticLogger(logger DiagnosticLogger) Option {
	return func(cfg *handlerConfig) {
		if logger == nil {
			cfg.logger = noopDiagnosticLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches hooks notified about substitutions and loads.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	cloned := hooks.Clone()
	return func(cfg *handlerConfig) {
		cfg.hooks = cloned
	}
}

// WithActivityConfig overrides the activity emitter configuration.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *handlerConfig) {
		cfg.activity = config
	}
}

// WithLoadIDGenerator replaces the uuid-based load pass identifier.
func WithLoadIDGenerator(fn func() string) Option {
	return func(cfg *handlerConfig) {
		if fn != nil {
			cfg.newLoadID = fn
		}
	}
}
