// Package state keeps the slot-indexed script configurations of a session.
//
// Each slot has a configured entry, the script chosen for it, and while a
// script-controlled company occupies the slot, a running entry describing the
// instance actually executing. The two can differ until the next restart.
//
// SlotStore satisfies scriptsave.ConfigStore so the savegame chunk handler can
// read and replace entries directly.
package state
