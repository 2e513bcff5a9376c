package inspect

import "fmt"

// EvaluatorOption configures an evaluator.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache stores compiled programs in cache.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the functions of registry to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Engines lists the available engines.
func Engines() []string {
	return []string{EngineExpr, EngineCEL, EngineJS}
}

// NewEvaluator constructs the evaluator for engine.
func NewEvaluator(engine string, opts ...EvaluatorOption) (Evaluator, error) {
	switch engine {
	case EngineExpr, "":
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("inspect: unknown engine %q", engine)
	}
}

func engineName(e Evaluator) string {
	switch e.(type) {
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	case *jsEvaluator:
		return EngineJS
	case nil:
		return "unknown"
	default:
		return "custom"
	}
}
