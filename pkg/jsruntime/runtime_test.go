package jsruntime_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	scriptsave "github.com/goliatone/go-scriptsave"
	"github.com/goliatone/go-scriptsave/pkg/jsruntime"
	"github.com/goliatone/go-scriptsave/pkg/registry"
	"github.com/goliatone/go-scriptsave/pkg/savegame"
	"github.com/goliatone/go-scriptsave/pkg/scriptconfig"
	"github.com/goliatone/go-scriptsave/pkg/state"
)

const counterScript = `
var state = { turns: 0, loadedFrom: -1 };
function Step() { state.turns++; return state.turns; }
function Save() { return state; }
function Load(version, data) { state = data; state.loadedFrom = version; log("restored"); }
`

type session struct {
	reg     *registry.Registry
	store   *state.SlotStore
	runtime *jsruntime.Runtime
	handler *scriptsave.ChunkHandler
	table   *savegame.HandlerTable
}

func newSession(t *testing.T, versions []int, opts ...jsruntime.Option) *session {
	t.Helper()
	reg := registry.New()
	for _, version := range versions {
		if err := reg.Register(registry.Info{Name: "counter", Version: version, Source: counterScript}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	store, err := state.NewSlotStore(func() scriptsave.Config { return scriptconfig.New(reg) })
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	rt, err := jsruntime.New(store, reg, opts...)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	handler, err := scriptsave.NewChunkHandler(store, reg, rt, scriptsave.WithDiagnosticLogger(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	table, err := savegame.NewHandlerTable(handler)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return &session{reg: reg, store: store, runtime: rt, handler: handler, table: table}
}

func (s *session) save(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := s.table.Save(context.Background(), &buf, savegame.CurrentVersion); err != nil {
		t.Fatalf("save: %v", err)
	}
	return buf.Bytes()
}

func (s *session) load(t *testing.T, data []byte, occupied ...int) {
	t.Helper()
	for _, slot := range occupied {
		s.store.ReplaceRunning(slot)
	}
	if _, err := s.table.Load(context.Background(), bytes.NewReader(data)); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestRuntimeRestoresScriptData(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	src := newSession(t, []int{1})
	src.store.GetOrCreate(2).Change("counter", 1, true)
	src.store.Start(2)
	if err := src.runtime.Start(2); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := src.runtime.Call(2, "Step"); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	data := src.save(t)

	dst := newSession(t, []int{1}, jsruntime.WithLogger(logger))
	dst.load(t, data, 2)
	if err := dst.runtime.Start(2); err != nil {
		t.Fatalf("start restored: %v", err)
	}
	turns, err := dst.runtime.Call(2, "Step")
	if err != nil {
		t.Fatalf("step restored: %v", err)
	}
	if turns != int64(4) {
		t.Fatalf("expected restored counter to continue at 4, got %v", turns)
	}
	saved, err := dst.runtime.Call(2, "Save")
	if err != nil {
		t.Fatalf("save call: %v", err)
	}
	if snapshot := saved.(map[string]any); snapshot["loadedFrom"] != int64(1) {
		t.Fatalf("Load should receive the saved version, got %v", snapshot["loadedFrom"])
	}
	if !strings.Contains(logs.String(), "restored") || !strings.Contains(logs.String(), "slot=2") {
		t.Fatalf("script log not forwarded: %q", logs.String())
	}
}

func TestRuntimeDropsDataForSubstitutedVersion(t *testing.T) {
	src := newSession(t, []int{1})
	src.store.GetOrCreate(0).Change("counter", 1, true)
	src.store.Start(0)
	if err := src.runtime.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := src.runtime.Call(0, "Step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	data := src.save(t)

	dst := newSession(t, []int{2})
	dst.load(t, data, 0)
	running := dst.store.Running(0)
	if running.Version() != 2 {
		t.Fatalf("running slot should use v2, got %d", running.Version())
	}
	if err := dst.runtime.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	turns, err := dst.runtime.Call(0, "Step")
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if turns != int64(1) {
		t.Fatalf("substituted script must start fresh, got %v", turns)
	}
}

func TestRuntimeSavesEmptyDataWithoutInstance(t *testing.T) {
	s := newSession(t, []int{1})
	s.store.GetOrCreate(0).Change("counter", 1, true)
	s.store.Start(0)
	data := s.save(t)

	_, slots, err := scriptsave.DecodeSlots(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if slots[0].Running == nil {
		t.Fatalf("occupied slot should carry a running record")
	}
	if !bytes.Equal(slots[0].RunningData, []byte{0}) {
		t.Fatalf("expected an empty string payload, got %v", slots[0].RunningData)
	}
}

func TestRuntimeCallErrors(t *testing.T) {
	s := newSession(t, []int{1})
	if _, err := s.runtime.Call(5, "Step"); !errors.Is(err, jsruntime.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if err := s.runtime.Start(5); err == nil {
		t.Fatalf("starting an unoccupied slot should fail")
	}

	s.store.GetOrCreate(1).Change("counter", 1, true)
	s.store.Start(1)
	if err := s.runtime.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.runtime.Call(1, "Missing"); err == nil {
		t.Fatalf("expected error for undefined function")
	}
	s.runtime.Stop(1)
	if _, err := s.runtime.Call(1, "Step"); !errors.Is(err, jsruntime.ErrNotRunning) {
		t.Fatalf("stopped slot should not run, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := jsruntime.New(nil, registry.New()); err == nil {
		t.Fatalf("expected error for nil slots")
	}
	store, _ := state.NewSlotStore(func() scriptsave.Config { return scriptconfig.New(nil) })
	if _, err := jsruntime.New(store, nil); err == nil {
		t.Fatalf("expected error for nil finder")
	}
}
