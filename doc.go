// Package scriptsave persists per-slot script configurations inside a
// savegame and reconstructs them on load, including from streams written by
// older schema revisions.
//
// Each slot (one per company) stores a configured record (the slot's chosen
// script, version and settings blob) and, when the slot is occupied by an
// active script instance, a running record followed by that instance's own
// saved data. Field layouts are described as data (FieldDescriptor tables
// with inclusive version ranges) and resolved against the stream version
// before any bytes are read.
//
// When a savegame references a script version that is no longer installed,
// ResolveScript picks a substitute deterministically: the exact version, then
// the latest installed version of the same script, then no specific script
// (random assignment). Substitutions are reported through a DiagnosticLogger
// and, when configured, as activity events. Saved script data is only handed
// to the exact script that wrote it.
//
// Data flow on load:
//
//	savegame.Reader -> Resolve/ResolveHeader/ResolveLegacy -> readRecord
//	  -> ResolveScript -> Config.Change/StringToSettings
//	  -> Runtime.LoadRunningState -> Config.SetPendingLoadPayload
package scriptsave
