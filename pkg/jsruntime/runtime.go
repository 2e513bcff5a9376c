// Package jsruntime runs slot scripts on goja and persists their private data
// for the savegame chunk handler.
//
// A script is plain JavaScript. It may define:
//
//	function Save() { return {...} }   // data written to the savegame
//	function Load(version, data) {}    // called on start with restored data
//
// and can call log(message) to write through the runtime's logger.
package jsruntime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
	scriptsave "github.com/goliatone/go-scriptsave"
	"github.com/goliatone/go-scriptsave/pkg/registry"
	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

// ErrNotRunning is returned for slots without a started instance.
var ErrNotRunning = errors.New("jsruntime: no instance running")

// Slots exposes the running configurations.
type Slots interface {
	Running(slot int) scriptsave.Config
}

// Finder resolves a script name and version to its info.
type Finder interface {
	Find(name string, version int, forceExact bool) (registry.Info, bool)
}

type pendingSource interface {
	TakePendingLoadPayload() (scriptsave.Payload, bool)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for script log calls.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runtime hosts one goja instance per occupied slot.
type Runtime struct {
	mu        sync.Mutex
	slots     Slots
	finder    Finder
	logger    *slog.Logger
	instances map[int]*instance
}

var _ scriptsave.Runtime = (*Runtime)(nil)

type instance struct {
	vm   *goja.Runtime
	info registry.Info
}

// New constructs a Runtime.
func New(slots Slots, finder Finder, opts ...Option) (*Runtime, error) {
	if slots == nil {
		return nil, errors.New("jsruntime: slots are required")
	}
	if finder == nil {
		return nil, errors.New("jsruntime: finder is required")
	}
	r := &Runtime{
		slots:     slots,
		finder:    finder,
		logger:    slog.Default(),
		instances: map[int]*instance{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Start runs the script configured as running in slot. Pending data saved by
// a compatible version is passed to Load before Start returns.
func (r *Runtime) Start(slot int) error {
	cfg := r.slots.Running(slot)
	if cfg == nil {
		return fmt.Errorf("jsruntime: slot %d is not occupied", slot)
	}
	var payload scriptsave.Payload
	if pending, ok := cfg.(pendingSource); ok {
		payload, _ = pending.TakePendingLoadPayload()
	}
	if !cfg.HasScript() {
		// Nothing to run; restored data has no consumer.
		r.mu.Lock()
		delete(r.instances, slot)
		r.mu.Unlock()
		return nil
	}
	info, ok := r.finder.Find(cfg.Name(), cfg.Version(), true)
	if !ok {
		return fmt.Errorf("jsruntime: script %s@%d is not installed", cfg.Name(), cfg.Version())
	}

	vm := goja.New()
	logger := r.logger.With(slog.Int("slot", slot), slog.String("script", info.Name))
	if err := vm.Set("log", func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("jsruntime: prepare slot %d: %w", slot, err)
	}
	if _, err := vm.RunScript(info.Name, info.Source); err != nil {
		return fmt.Errorf("jsruntime: start %s in slot %d: %w", info.Name, slot, err)
	}
	if payload.HasData() && len(payload.Data) > 0 {
		if err := callLoad(vm, payload); err != nil {
			return fmt.Errorf("jsruntime: load data into %s in slot %d: %w", info.Name, slot, err)
		}
	}

	r.mu.Lock()
	r.instances[slot] = &instance{vm: vm, info: info}
	r.mu.Unlock()
	return nil
}

// Stop discards the instance running in slot.
func (r *Runtime) Stop(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, slot)
}

// Call invokes a global function of the instance in slot and returns its
// exported result.
func (r *Runtime) Call(slot int, name string, args ...any) (any, error) {
	inst, err := r.instance(slot)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(inst.vm.Get(name))
	if !ok {
		return nil, fmt.Errorf("jsruntime: %s does not define %s", inst.info.Name, name)
	}
	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = inst.vm.ToValue(arg)
	}
	result, err := fn(goja.Undefined(), values...)
	if err != nil {
		return nil, err
	}
	return result.Export(), nil
}

// SaveRunningState writes the JSON encoding of the script's Save result as a
// single string. Slots without an instance or without Save write an empty
// string.
func (r *Runtime) SaveRunningState(w *savegame.RecordWriter, slot int) error {
	r.mu.Lock()
	inst := r.instances[slot]
	r.mu.Unlock()
	if inst == nil {
		w.WriteString("")
		return nil
	}
	save, ok := goja.AssertFunction(inst.vm.Get("Save"))
	if !ok {
		w.WriteString("")
		return nil
	}
	result, err := save(goja.Undefined())
	if err != nil {
		return fmt.Errorf("jsruntime: save %s in slot %d: %w", inst.info.Name, slot, err)
	}
	data, err := json.Marshal(result.Export())
	if err != nil {
		return fmt.Errorf("jsruntime: encode %s data in slot %d: %w", inst.info.Name, slot, err)
	}
	w.WriteString(string(data))
	return nil
}

// LoadRunningState consumes the saved data. With an unspecified version the
// data is dropped.
func (r *Runtime) LoadRunningState(rr *savegame.RecordReader, version int) (scriptsave.Payload, error) {
	data, err := rr.ReadString()
	if err != nil {
		return scriptsave.Payload{}, err
	}
	if version == scriptsave.VersionUnspecified || data == "" {
		return scriptsave.Payload{Version: version}, nil
	}
	return scriptsave.Payload{Version: version, Data: []byte(data)}, nil
}

// LoadEmptyPlaceholder consumes the saved data without keeping it.
func (r *Runtime) LoadEmptyPlaceholder(rr *savegame.RecordReader) error {
	_, err := rr.ReadString()
	return err
}

func (r *Runtime) instance(slot int) (*instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[slot]
	if !ok {
		return nil, fmt.Errorf("%w in slot %d", ErrNotRunning, slot)
	}
	return inst, nil
}

func callLoad(vm *goja.Runtime, payload scriptsave.Payload) error {
	load, ok := goja.AssertFunction(vm.Get("Load"))
	if !ok {
		return nil
	}
	var data any
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return err
	}
	_, err := load(goja.Undefined(), vm.ToValue(payload.Version), vm.ToValue(data))
	return err
}
