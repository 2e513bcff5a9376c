package scriptsave

import (
	"fmt"

	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

type recordField uint8

const (
	fieldName recordField = iota + 1
	fieldSettings
	fieldVersion
	fieldRandom
)

// FieldDescriptor describes one stored field and the inclusive range of
// stream versions that carry it.
type FieldDescriptor struct {
	Name       string
	Kind       savegame.Kind
	MinVersion savegame.Version
	MaxVersion savegame.Version

	target recordField
}

// PresentIn reports whether streams at version carry the field.
func (d FieldDescriptor) PresentIn(version savegame.Version) bool {
	return version.Within(d.MinVersion, d.MaxVersion)
}

// Table is an ordered list of field descriptors.
type Table []FieldDescriptor

func (t Table) lookup(name string) (FieldDescriptor, bool) {
	for _, desc := range t {
		if desc.Name == name {
			return desc, true
		}
	}
	return FieldDescriptor{}, false
}

var configuredFields = Table{
	{Name: "name", Kind: savegame.KindString, MaxVersion: savegame.MaxVersion, target: fieldName},
	{Name: "settings", Kind: savegame.KindString, MaxVersion: savegame.MaxVersion, target: fieldSettings},
	{Name: "version", Kind: savegame.KindUint32, MinVersion: savegame.VersionScriptVersion, MaxVersion: savegame.MaxVersion, target: fieldVersion},
	{Name: "is_random", Kind: savegame.KindBool, MinVersion: savegame.VersionRandomFlag, MaxVersion: savegame.VersionLocalConfig - 1, target: fieldRandom},
}

var runningFields = Table{
	{Name: "running_name", Kind: savegame.KindString, MinVersion: savegame.VersionLocalConfig, MaxVersion: savegame.MaxVersion, target: fieldName},
	{Name: "running_settings", Kind: savegame.KindString, MinVersion: savegame.VersionLocalConfig, MaxVersion: savegame.MaxVersion, target: fieldSettings},
	{Name: "running_version", Kind: savegame.KindUint32, MinVersion: savegame.VersionLocalConfig, MaxVersion: savegame.MaxVersion, target: fieldVersion},
}

// ConfiguredTable returns a copy of the configured-record layout.
func ConfiguredTable() Table {
	return append(Table(nil), configuredFields...)
}

// RunningTable returns a copy of the running-record layout.
func RunningTable() Table {
	return append(Table(nil), runningFields...)
}

// LegacyField is one entry of the field layout used before streams carried
// table headers. Current names the descriptor the field now lives in; an empty
// or unknown Current means the field is skipped. Kind and the version range
// only matter for skipped fields, mapped fields use their descriptor's.
type LegacyField struct {
	Name       string
	Current    string
	Kind       savegame.Kind
	MinVersion savegame.Version
	MaxVersion savegame.Version
}

var legacyConfiguredFields = []LegacyField{
	{Name: "name", Current: "name", Kind: savegame.KindString, MaxVersion: savegame.MaxVersion},
	{Name: "settings", Current: "settings", Kind: savegame.KindString, MaxVersion: savegame.MaxVersion},
	{Name: "version", Current: "version", Kind: savegame.KindUint32, MinVersion: savegame.VersionScriptVersion, MaxVersion: savegame.MaxVersion},
	{Name: "is_random", Current: "is_random", Kind: savegame.KindBool, MinVersion: savegame.VersionRandomFlag, MaxVersion: savegame.VersionLocalConfig - 1},
}

// LegacyConfiguredFields returns a copy of the pre-header configured layout.
func LegacyConfiguredFields() []LegacyField {
	return append([]LegacyField(nil), legacyConfiguredFields...)
}

// ResolvedField is a field to read from a record. Skip fields are consumed
// without being stored.
type ResolvedField struct {
	FieldDescriptor
	Skip bool
}

// Resolve returns the descriptors of table present at version, in order.
func Resolve(table Table, version savegame.Version) []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(table))
	for _, desc := range table {
		if desc.PresentIn(version) {
			fields = append(fields, desc)
		}
	}
	return fields
}

// ResolveHeader matches a stream's table header against table. Header fields
// that are unknown or outside their descriptor's range are skipped.
func ResolveHeader(table Table, header []savegame.HeaderField, version savegame.Version) ([]ResolvedField, error) {
	fields := make([]ResolvedField, 0, len(header))
	for _, entry := range header {
		desc, ok := table.lookup(entry.Name)
		if !ok || !desc.PresentIn(version) {
			fields = append(fields, ResolvedField{
				FieldDescriptor: FieldDescriptor{Name: entry.Name, Kind: entry.Kind},
				Skip:            true,
			})
			continue
		}
		if desc.Kind != entry.Kind {
			return nil, savegame.Corruptf("field %q stored as %s, expected %s", entry.Name, entry.Kind, desc.Kind)
		}
		fields = append(fields, ResolvedField{FieldDescriptor: desc})
	}
	return fields, nil
}

// ResolveLegacy maps a pre-header layout onto table and filters it by
// version. Legacy fields without a current descriptor are skipped when the
// stream carries them.
func ResolveLegacy(table Table, legacy []LegacyField, version savegame.Version) []ResolvedField {
	fields := make([]ResolvedField, 0, len(legacy))
	for _, entry := range legacy {
		if desc, ok := table.lookup(entry.Current); ok && entry.Current != "" {
			if desc.PresentIn(version) {
				fields = append(fields, ResolvedField{FieldDescriptor: desc})
			}
			continue
		}
		if version.Within(entry.MinVersion, entry.MaxVersion) {
			fields = append(fields, ResolvedField{
				FieldDescriptor: FieldDescriptor{Name: entry.Name, Kind: entry.Kind},
				Skip:            true,
			})
		}
	}
	return fields
}

func resolveAll(fields []FieldDescriptor) []ResolvedField {
	resolved := make([]ResolvedField, len(fields))
	for i, desc := range fields {
		resolved[i] = ResolvedField{FieldDescriptor: desc}
	}
	return resolved
}

func headerOf(fields []FieldDescriptor) []savegame.HeaderField {
	header := make([]savegame.HeaderField, len(fields))
	for i, desc := range fields {
		header[i] = savegame.HeaderField{Name: desc.Name, Kind: desc.Kind}
	}
	return header
}

// layout is the per-record field list of one chunk: the configured fields
// always, then the running fields for occupied slots.
type layout struct {
	configured []ResolvedField
	running    []ResolvedField
}

// writeLayout returns the fields written at version, configured then running.
func writeLayout(version savegame.Version) ([]FieldDescriptor, []FieldDescriptor) {
	return Resolve(configuredFields, version), Resolve(runningFields, version)
}

// splitHeader divides a table header at the first running field. Everything
// after it belongs to the running record, including fields this build does
// not know.
func splitHeader(header []savegame.HeaderField) ([]savegame.HeaderField, []savegame.HeaderField) {
	for i, entry := range header {
		if _, ok := runningFields.lookup(entry.Name); ok {
			return header[:i], header[i:]
		}
	}
	return header, nil
}

// readLayout reads the field layout for the current chunk: the table header
// when the stream has one, the legacy map otherwise.
func readLayout(r *savegame.Reader) (layout, error) {
	version := r.Version()
	if !r.HasTableHeader() {
		return layout{
			configured: ResolveLegacy(configuredFields, legacyConfiguredFields, version),
			running:    resolveAll(Resolve(runningFields, version)),
		}, nil
	}
	header, err := r.ReadTableHeader()
	if err != nil {
		return layout{}, fmt.Errorf("scriptsave: read table header: %w", err)
	}
	configuredHeader, runningHeader := splitHeader(header)
	configured, err := ResolveHeader(configuredFields, configuredHeader, version)
	if err != nil {
		return layout{}, err
	}
	running, err := ResolveHeader(runningFields, runningHeader, version)
	if err != nil {
		return layout{}, err
	}
	return layout{configured: configured, running: running}, nil
}
