package scriptsave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-scriptsave/pkg/activity"
	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

// ChunkHandler saves and loads the per-slot script configuration chunk.
type ChunkHandler struct {
	store   ConfigStore
	catalog Catalog
	runtime Runtime
	cfg     handlerConfig
	emitter *activity.Emitter
}

var _ savegame.ChunkHandler = (*ChunkHandler)(nil)

// NewChunkHandler wires the chunk to its collaborators.
func NewChunkHandler(store ConfigStore, catalog Catalog, runtime Runtime, opts ...Option) (*ChunkHandler, error) {
	if store == nil {
		return nil, errors.New("scriptsave: config store is required")
	}
	if catalog == nil {
		return nil, errors.New("scriptsave: catalog is required")
	}
	if runtime == nil {
		return nil, errors.New("scriptsave: runtime is required")
	}
	cfg := applyOptions(opts)
	return &ChunkHandler{
		store:   store,
		catalog: catalog,
		runtime: runtime,
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.hooks, cfg.activity),
	}, nil
}

// Tag implements savegame.ChunkHandler.
func (h *ChunkHandler) Tag() string { return ChunkTag }

// Kind implements savegame.ChunkHandler.
func (h *ChunkHandler) Kind() savegame.ChunkKind { return savegame.ChunkTable }

// MaxSlots returns the number of slots written on save.
func (h *ChunkHandler) MaxSlots() int { return h.cfg.maxSlots }

// Save writes one record per slot in ascending order. Occupied slots append
// the running record and the runtime's private data.
func (h *ChunkHandler) Save(_ context.Context, w *savegame.Writer) error {
	configured, running := writeLayout(w.Version())
	header := append(append([]FieldDescriptor(nil), configured...), running...)
	if err := w.WriteTableHeader(headerOf(header)); err != nil {
		return err
	}
	for slot := 0; slot < h.cfg.maxSlots; slot++ {
		err := w.WriteElement(slot, func(rw *savegame.RecordWriter) error {
			return h.saveSlot(rw, slot, configured, running)
		})
		if err != nil {
			return fmt.Errorf("scriptsave: save slot %d: %w", slot, err)
		}
	}
	return nil
}

func (h *ChunkHandler) saveSlot(w *savegame.RecordWriter, slot int, configured, running []FieldDescriptor) error {
	rec := recordFromConfig(h.store.GetOrCreate(slot))
	if err := writeRecord(w, configured, &rec); err != nil {
		return err
	}
	if !h.store.Occupied(slot) {
		return nil
	}
	runningRec := recordFromConfig(h.store.Running(slot))
	if err := writeRecord(w, running, &runningRec); err != nil {
		return err
	}
	return h.runtime.SaveRunningState(w, slot)
}

func recordFromConfig(cfg Config) record {
	rec := newRecord()
	if cfg == nil || !cfg.HasScript() {
		rec.Random = true
		if cfg != nil {
			rec.Settings = cfg.SettingsToString()
		}
		return rec
	}
	rec.Name = cfg.Name()
	rec.Version = cfg.Version()
	rec.Settings = cfg.SettingsToString()
	return rec
}

// loadPass holds what one Load call needs across slots.
type loadPass struct {
	id            string
	layout        layout
	live          bool
	slots         int
	substitutions int
}

// Load reads the chunk. Live loads reset every slot to random assignment first
// and then apply the configured and running records. Menu and network client
// loads only consume the records.
func (h *ChunkHandler) Load(ctx context.Context, r *savegame.Reader) error {
	l, err := readLayout(r)
	if err != nil {
		return err
	}
	pass := &loadPass{
		id:     h.cfg.newLoadID(),
		layout: l,
		live:   h.cfg.hostMode().LoadsLiveState(),
	}

	if pass.live {
		for slot := 0; slot < h.cfg.maxSlots; slot++ {
			h.store.GetOrCreate(slot).Change("", VersionUnspecified, false)
		}
	}

	for {
		index, rr, err := r.IterateArray()
		if err != nil {
			return err
		}
		if index == -1 {
			break
		}
		if index >= h.cfg.maxSlots {
			return &savegame.CorruptError{
				Chunk:  ChunkTag,
				Reason: fmt.Sprintf("slot index %d out of range [0, %d)", index, h.cfg.maxSlots),
			}
		}
		if err := h.loadSlot(ctx, pass, index, rr); err != nil {
			return fmt.Errorf("scriptsave: load slot %d: %w", index, err)
		}
		pass.slots++
	}

	if pass.live {
		_ = h.emitter.Emit(ctx, activity.BuildSlotsLoadedEvent(activity.LoadInput{
			LoadID:        pass.id,
			Chunk:         ChunkTag,
			StreamVersion: int(r.Version()),
			Slots:         pass.slots,
			Substitutions: pass.substitutions,
			OccurredAt:    time.Now().UTC(),
		}))
	}
	return nil
}

func (h *ChunkHandler) loadSlot(ctx context.Context, pass *loadPass, slot int, r *savegame.RecordReader) error {
	configured := newRecord()
	if err := readRecord(r, pass.layout.configured, &configured); err != nil {
		return err
	}
	occupied := h.store.Occupied(slot)

	var running record
	if occupied {
		running = configured.seedRunning()
		if err := readRecord(r, pass.layout.running, &running); err != nil {
			return err
		}
	}

	if !pass.live {
		if occupied {
			return h.runtime.LoadEmptyPlaceholder(r)
		}
		return nil
	}

	res := ResolveScript(h.catalog, FallbackRequest{
		Name:        configured.Name,
		Version:     configured.Version,
		Random:      configured.Random,
		AllowRandom: true,
		Pass:        PassConfigured,
	})
	h.report(ctx, pass, slot, PassConfigured, res)
	cfg := h.store.GetOrCreate(slot)
	applyResolution(cfg, res)
	cfg.StringToSettings(configured.Settings)

	if !occupied {
		return nil
	}

	runningRes := ResolveScript(h.catalog, FallbackRequest{
		Name:    running.Name,
		Version: running.Version,
		Pass:    PassRunning,
	})
	h.report(ctx, pass, slot, PassRunning, runningRes)
	// Data is only handed over under the version it was saved with.
	payloadVersion := running.Version
	if !runningRes.DataCompatible {
		payloadVersion = VersionUnspecified
	}
	payload, err := h.runtime.LoadRunningState(r, payloadVersion)
	if err != nil {
		return err
	}
	if payloadVersion == VersionUnspecified {
		payload = Payload{Version: VersionUnspecified}
	}
	runningCfg := h.store.ReplaceRunning(slot)
	applyResolution(runningCfg, runningRes)
	runningCfg.StringToSettings(running.Settings)
	runningCfg.SetPendingLoadPayload(payload)
	return nil
}

func applyResolution(cfg Config, res Resolution) {
	if res.Identity.IsRandom {
		cfg.Change("", VersionUnspecified, false)
		return
	}
	cfg.Change(res.Identity.Name, res.Identity.Version, true)
}

func (h *ChunkHandler) report(ctx context.Context, pass *loadPass, slot int, p Pass, res Resolution) {
	if !res.Substituted {
		return
	}
	pass.substitutions++
	h.cfg.logger.LogDiagnostic(Diagnostic{
		LoadID:      pass.id,
		Slot:        slot,
		Pass:        p,
		Outcome:     res.Outcome,
		Requested:   res.Requested,
		Resolved:    res.Identity,
		Situation:   res.Situation,
		Consequence: res.Consequence,
	})
	_ = h.emitter.Emit(ctx, activity.BuildScriptSubstitutedEvent(activity.SubstitutionInput{
		LoadID:      pass.id,
		Slot:        slot,
		Pass:        p.String(),
		Outcome:     res.Outcome.String(),
		Requested:   res.Requested.String(),
		Resolved:    res.Identity.String(),
		Situation:   res.Situation,
		Consequence: res.Consequence,
		OccurredAt:  time.Now().UTC(),
	}))
}
