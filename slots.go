package scriptsave

import (
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

// SlotRecord is a read-only view of one stored slot. Running is nil when the
// record carries no running instance.
type SlotRecord struct {
	Slot            int             `json:"slot"`
	Configured      ScriptIdentity  `json:"configured"`
	Settings        string          `json:"settings"`
	Running         *ScriptIdentity `json:"running,omitempty"`
	RunningSettings string          `json:"running_settings,omitempty"`
	RunningData     []byte          `json:"running_data,omitempty"`
}

// ReadSlots decodes the current chunk without touching any collaborator.
// Occupancy is not known offline, so a record with bytes left after the
// configured fields is taken to hold a running instance.
func ReadSlots(r *savegame.Reader, maxSlots int) ([]SlotRecord, error) {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	l, err := readLayout(r)
	if err != nil {
		return nil, err
	}
	var slots []SlotRecord
	for {
		index, rr, err := r.IterateArray()
		if err != nil {
			return nil, err
		}
		if index == -1 {
			return slots, nil
		}
		if index >= maxSlots {
			return nil, &savegame.CorruptError{
				Chunk:  ChunkTag,
				Reason: fmt.Sprintf("slot index %d out of range [0, %d)", index, maxSlots),
			}
		}
		slot, err := readSlot(rr, l)
		if err != nil {
			return nil, fmt.Errorf("scriptsave: read slot %d: %w", index, err)
		}
		slots = append(slots, slot)
	}
}

func readSlot(r *savegame.RecordReader, l layout) (SlotRecord, error) {
	configured := newRecord()
	if err := readRecord(r, l.configured, &configured); err != nil {
		return SlotRecord{}, err
	}
	slot := SlotRecord{
		Slot:       r.Index(),
		Configured: configured.identity(),
		Settings:   configured.Settings,
	}
	if r.Remaining() == 0 {
		return slot, nil
	}
	running := configured.seedRunning()
	if err := readRecord(r, l.running, &running); err != nil {
		return SlotRecord{}, err
	}
	identity := running.identity()
	slot.Running = &identity
	slot.RunningSettings = running.Settings
	slot.RunningData = r.ReadRest()
	return slot, nil
}

// DecodeSlots reads a whole stream and returns the records of the script
// configuration chunk. Other chunks are skipped.
func DecodeSlots(in io.Reader, maxSlots int) (savegame.Version, []SlotRecord, error) {
	r, err := savegame.NewReader(in)
	if err != nil {
		return 0, nil, err
	}
	var slots []SlotRecord
	for {
		tag, kind, err := r.NextChunk()
		if errors.Is(err, io.EOF) {
			return r.Version(), slots, nil
		}
		if err != nil {
			return r.Version(), nil, err
		}
		if tag != ChunkTag {
			if err := r.SkipChunk(); err != nil {
				return r.Version(), nil, err
			}
			continue
		}
		if kind != savegame.ChunkTable {
			return r.Version(), nil, &savegame.CorruptError{Chunk: tag, Reason: fmt.Sprintf("chunk kind %d, expected table", kind)}
		}
		slots, err = ReadSlots(r, maxSlots)
		if err != nil {
			return r.Version(), nil, err
		}
	}
}
