package scriptsave

import (
	"fmt"

	"github.com/goliatone/go-scriptsave/pkg/savegame"
)

// record is the staging value for one configured or running record. A fresh
// value is created for every record so omitted fields keep their defaults.
type record struct {
	Name     string
	Settings string
	Version  int
	Random   bool
}

func newRecord() record {
	return record{Version: VersionUnspecified}
}

// seedRunning returns the starting point for the running record of the same
// slot. Streams without the running layout stored a single record that served
// both purposes, so the running values start from the configured ones.
func (r record) seedRunning() record {
	seeded := r
	seeded.Random = false
	return seeded
}

func (r record) identity() ScriptIdentity {
	return ScriptIdentity{Name: r.Name, Version: r.Version, IsRandom: r.Random || r.Name == ""}
}

func writeRecord(w *savegame.RecordWriter, fields []FieldDescriptor, rec *record) error {
	for _, field := range fields {
		switch field.target {
		case fieldName:
			w.WriteString(rec.Name)
		case fieldSettings:
			w.WriteString(rec.Settings)
		case fieldVersion:
			w.WriteUint32(uint32(int32(rec.Version)))
		case fieldRandom:
			w.WriteBool(rec.Random)
		default:
			return fmt.Errorf("scriptsave: field %q has no staging target", field.Name)
		}
	}
	return nil
}

func readRecord(r *savegame.RecordReader, fields []ResolvedField, rec *record) error {
	for _, field := range fields {
		if field.Skip {
			if err := r.Skip(field.Kind); err != nil {
				return err
			}
			continue
		}
		switch field.target {
		case fieldName:
			value, err := r.ReadString()
			if err != nil {
				return err
			}
			rec.Name = value
		case fieldSettings:
			value, err := r.ReadString()
			if err != nil {
				return err
			}
			rec.Settings = value
		case fieldVersion:
			value, err := r.ReadUint32()
			if err != nil {
				return err
			}
			rec.Version = int(int32(value))
		case fieldRandom:
			value, err := r.ReadBool()
			if err != nil {
				return err
			}
			rec.Random = value
		default:
			return fmt.Errorf("scriptsave: field %q has no staging target", field.Name)
		}
	}
	return nil
}
