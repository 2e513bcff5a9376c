package savegame

import "fmt"

// Version is the schema version stamped on a savegame stream.
type Version uint16

const (
	// VersionScriptVersion introduced the per-slot script version field.
	VersionScriptVersion Version = 108
	// VersionRandomFlag introduced the explicit random-assignment flag.
	VersionRandomFlag Version = 136
	// VersionTableChunks introduced self-describing table headers.
	VersionTableChunks Version = 295
	// VersionLocalConfig split running script state from the configured choice
	// and retired the random-assignment flag.
	VersionLocalConfig Version = 332
	// CurrentVersion is the version written by this build.
	CurrentVersion Version = 340
	// MaxVersion is the open upper bound for ranges that never close.
	MaxVersion Version = 0xFFFF
)

// Within reports whether v falls in the inclusive range [min, max].
func (v Version) Within(min, max Version) bool {
	return v >= min && v <= max
}

// Kind identifies how a single field is encoded inside a record body.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindUint32
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUint32:
		return "uint32"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k >= KindBool && k <= KindString
}

// ChunkKind distinguishes plain arrays from table-described arrays.
type ChunkKind uint8

const (
	ChunkArray ChunkKind = iota + 1
	ChunkTable
)

// HeaderField is one entry of a table header.
type HeaderField struct {
	Name string
	Kind Kind
}
