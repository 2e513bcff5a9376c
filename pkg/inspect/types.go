package inspect

import (
	"time"

	scriptsave "github.com/goliatone/go-scriptsave"
)

// Evaluator runs rule expressions.
type Evaluator interface {
	Evaluate(ctx RuleContext, expression string) (any, error)
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is an expression prepared for repeated evaluation.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// RuleContext is the input of one evaluation.
type RuleContext struct {
	Record   map[string]any
	Metadata map[string]any
	Now      time.Time
}

func (c RuleContext) withDefaults() RuleContext {
	if c.Record == nil {
		c.Record = map[string]any{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	if c.Now.IsZero() {
		c.Now = time.Now().UTC()
	}
	return c
}

func (c RuleContext) label() string {
	if slot, ok := c.Record["slot"]; ok {
		return "slot " + toString(slot)
	}
	return ""
}

// recordVariables lists the variables every record exposes.
var recordVariables = []string{
	"slot",
	"configured",
	"settings",
	"occupied",
	"running",
	"running_settings",
	"data_size",
}

// RecordContext builds the evaluation context of a decoded slot.
func RecordContext(rec scriptsave.SlotRecord) RuleContext {
	record := map[string]any{
		"slot":             rec.Slot,
		"configured":       identityMap(rec.Configured),
		"settings":         rec.Settings,
		"occupied":         rec.Running != nil,
		"running":          nil,
		"running_settings": rec.RunningSettings,
		"data_size":        len(rec.RunningData),
	}
	if rec.Running != nil {
		record["running"] = identityMap(*rec.Running)
	}
	return RuleContext{Record: record}
}

func identityMap(id scriptsave.ScriptIdentity) map[string]any {
	return map[string]any{
		"name":    id.Name,
		"version": id.Version,
		"random":  id.IsRandom,
	}
}
