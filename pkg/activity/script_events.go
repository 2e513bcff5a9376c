package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	VerbScriptSubstituted = "scripts.substituted"
	VerbSlotsLoaded       = "scripts.loaded"

	ObjectTypeSlot  = "scripts.slot"
	ObjectTypeChunk = "scripts.chunk"
)

// SubstitutionInput describes one fallback substitution made while loading.
type SubstitutionInput struct {
	LoadID      string
	Slot        int
	Pass        string
	Outcome     string
	Requested   string
	Resolved    string
	Situation   string
	Consequence string
	Channel     string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// LoadInput summarizes one completed load of the script chunk.
type LoadInput struct {
	LoadID        string
	Chunk         string
	StreamVersion int
	Slots         int
	Substitutions int
	Channel       string
	Metadata      map[string]any
	OccurredAt    time.Time
}

// BuildScriptSubstitutedEvent constructs the event for a fallback substitution.
func BuildScriptSubstitutedEvent(input SubstitutionInput) Event {
	metadata := cloneMap(input.Metadata)
	metadata = setString(metadata, "load_id", input.LoadID)
	metadata = setString(metadata, "pass", input.Pass)
	metadata = setString(metadata, "outcome", input.Outcome)
	metadata = setString(metadata, "requested", input.Requested)
	metadata = setString(metadata, "resolved", input.Resolved)
	metadata = setString(metadata, "situation", input.Situation)
	metadata = setString(metadata, "consequence", input.Consequence)
	metadata = ensureMetadata(metadata)
	metadata["slot"] = input.Slot

	return Event{
		Verb:       VerbScriptSubstituted,
		ObjectType: ObjectTypeSlot,
		ObjectID:   fmt.Sprintf("slot-%d", input.Slot),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildSlotsLoadedEvent constructs the event emitted after a live load.
func BuildSlotsLoadedEvent(input LoadInput) Event {
	metadata := cloneMap(input.Metadata)
	metadata = setString(metadata, "load_id", input.LoadID)
	metadata = ensureMetadata(metadata)
	metadata["stream_version"] = input.StreamVersion
	metadata["slots"] = input.Slots
	metadata["substitutions"] = input.Substitutions

	objectID := strings.TrimSpace(input.LoadID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Chunk)
	}
	if objectID == "" {
		objectID = ObjectTypeChunk
	}

	return Event{
		Verb:       VerbSlotsLoaded,
		ObjectType: ObjectTypeChunk,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func setString(meta map[string]any, key, value string) map[string]any {
	value = strings.TrimSpace(value)
	if value == "" {
		return meta
	}
	meta = ensureMetadata(meta)
	meta[key] = value
	return meta
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
