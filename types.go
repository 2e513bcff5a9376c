package scriptsave

import (
	"fmt"

	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

const (
	// ChunkTag identifies the script configuration chunk.
	ChunkTag = "AIPL"
	// DefaultMaxSlots is the number of script slots iterated on save.
	DefaultMaxSlots = 15
	// VersionUnspecified marks a version that is not pinned. Zero is a real
	// script version and must never be used for this.
	VersionUnspecified = -1
	// DummyScriptName is the reserved name of the no-op placeholder script
	// started when no real script was available.
	DummyScriptName = "%_dummy"
)

// ScriptIdentity names a script implementation. IsRandom marks a slot that is
// eligible for random assignment rather than a specific script.
type ScriptIdentity struct {
	Name     string `json:"name"`
	Version  int    `json:"version"`
	IsRandom bool   `json:"is_random"`
}

// RandomIdentity is the identity of a slot with no specific script.
func RandomIdentity() ScriptIdentity {
	return ScriptIdentity{Version: VersionUnspecified, IsRandom: true}
}

func (id ScriptIdentity) String() string {
	if id.IsRandom || id.Name == "" {
		return "random"
	}
	if id.Version == VersionUnspecified {
		return id.Name + "@latest"
	}
	return fmt.Sprintf("%s@%d", id.Name, id.Version)
}

// Payload is the deferred script data handed to a running instance. Version
// is VersionUnspecified when the data must not be given to the script.
type Payload struct {
	Version int
	Data    []byte
}

// HasData reports whether the payload should be offered to the script.
func (p Payload) HasData() bool {
	return p.Version != VersionUnspecified
}

// Config is the live configuration of one slot.
type Config interface {
	HasScript() bool
	Name() string
	Version() int
	SettingsToString() string
	StringToSettings(settings string)
	// Change selects a script. An empty name clears the selection (random
	// assignment); VersionUnspecified selects the latest installed version.
	Change(name string, version int, forceExactVersion bool)
	SetPendingLoadPayload(payload Payload)
}

// ConfigStore owns the slot-indexed configurations. Occupied reports whether
// a slot currently holds an active script-controlled company; Running returns
// that instance's configuration and ReplaceRunning swaps in a fresh one.
type ConfigStore interface {
	GetOrCreate(slot int) Config
	Occupied(slot int) bool
	Running(slot int) Config
	ReplaceRunning(slot int) Config
}

// Runtime saves and restores the private data of running script instances.
// Every method must consume exactly the bytes the matching save produced.
type Runtime interface {
	SaveRunningState(w *savegame.RecordWriter, slot int) error
	LoadRunningState(r *savegame.RecordReader, version int) (Payload, error)
	LoadEmptyPlaceholder(r *savegame.RecordReader) error
}

// Catalog answers availability questions about installed scripts.
type Catalog interface {
	Has(name string, version int) bool
	Latest(name string) (version int, ok bool)
}

// HostMode carries the host predicates consulted on load.
type HostMode struct {
	Menu       bool
	Networking bool
	Server     bool
}

// LoadsLiveState reports whether script state should be applied. The front-end
// menu and network clients only keep the stream cursor aligned.
func (m HostMode) LoadsLiveState() bool {
	if m.Menu {
		return false
	}
	return !m.Networking || m.Server
}
