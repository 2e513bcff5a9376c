package state

import (
	"fmt"
	"slices"
	"sync"

	scriptsave "github.com/goliatone/go-scriptsave"
)

// Factory creates an empty configuration.
type Factory func() scriptsave.Config

// SlotStore is an in-memory scriptsave.ConfigStore.
type SlotStore struct {
	mu         sync.RWMutex
	newConfig  Factory
	configured map[int]scriptsave.Config
	running    map[int]scriptsave.Config
}

var _ scriptsave.ConfigStore = (*SlotStore)(nil)

// NewSlotStore returns an empty store using factory for new entries.
func NewSlotStore(factory Factory) (*SlotStore, error) {
	if factory == nil {
		return nil, fmt.Errorf("state: config factory is required")
	}
	return &SlotStore{
		newConfig:  factory,
		configured: map[int]scriptsave.Config{},
		running:    map[int]scriptsave.Config{},
	}, nil
}

// GetOrCreate returns the configured entry of slot, creating an empty one.
func (s *SlotStore) GetOrCreate(slot int) scriptsave.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configured[slot]
	if !ok {
		cfg = s.newConfig()
		s.configured[slot] = cfg
	}
	return cfg
}

// Configured returns the configured entry of slot without creating one.
func (s *SlotStore) Configured(slot int) (scriptsave.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configured[slot]
	return cfg, ok
}

// Occupied reports whether slot has a running instance.
func (s *SlotStore) Occupied(slot int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.running[slot]
	return ok
}

// Running returns the running entry of an occupied slot, or nil.
func (s *SlotStore) Running(slot int) scriptsave.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running[slot]
}

// ReplaceRunning installs an empty running entry for slot and returns it.
// The slot becomes occupied.
func (s *SlotStore) ReplaceRunning(slot int) scriptsave.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.newConfig()
	s.running[slot] = cfg
	return cfg
}

// Start occupies slot with an instance of its configured script. The running
// entry copies the configured selection and settings.
func (s *SlotStore) Start(slot int) scriptsave.Config {
	configured := s.GetOrCreate(slot)
	running := s.ReplaceRunning(slot)
	if configured.HasScript() {
		running.Change(configured.Name(), configured.Version(), true)
	}
	running.StringToSettings(configured.SettingsToString())
	return running
}

// Stop vacates slot.
func (s *SlotStore) Stop(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, slot)
}

// OccupiedSlots returns the occupied slots in ascending order.
func (s *SlotStore) OccupiedSlots() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := make([]int, 0, len(s.running))
	for slot := range s.running {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	return slots
}
