package savegame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader walks a savegame stream chunk by chunk. It is not safe for
// concurrent use.
type Reader struct {
	r          *bufio.Reader
	version    Version
	chunk      string
	kind       ChunkKind
	headerRead bool
	done       bool
	current    *RecordReader
}

// NewReader validates the stream preamble and returns a reader positioned
// before the first chunk.
func NewReader(in io.Reader) (*Reader, error) {
	if in == nil {
		return nil, fmt.Errorf("savegame: reader is required")
	}
	r := &Reader{r: bufio.NewReader(in)}
	var preamble [6]byte
	if _, err := io.ReadFull(r.r, preamble[:]); err != nil {
		return nil, Corruptf("missing stream preamble: %v", err)
	}
	if [4]byte(preamble[:4]) != streamMagic {
		return nil, Corruptf("bad stream magic %q", preamble[:4])
	}
	r.version = Version(binary.BigEndian.Uint16(preamble[4:]))
	return r, nil
}

// Version reports the version stamped on the stream.
func (r *Reader) Version() Version {
	return r.version
}

// Chunk reports the tag of the chunk being read.
func (r *Reader) Chunk() string {
	return r.chunk
}

// NextChunk advances to the next chunk and returns io.EOF at the end tag.
// The previous chunk must have been read to its terminator.
func (r *Reader) NextChunk() (string, ChunkKind, error) {
	if r.chunk != "" && !r.done {
		return "", 0, &CorruptError{Chunk: r.chunk, Reason: "chunk not read to its terminator"}
	}
	var tag [4]byte
	if _, err := io.ReadFull(r.r, tag[:]); err != nil {
		return "", 0, Corruptf("missing chunk tag: %v", err)
	}
	if tag == endTag {
		r.chunk = ""
		return "", 0, io.EOF
	}
	kind, err := r.r.ReadByte()
	if err != nil {
		return "", 0, Corruptf("missing chunk kind for %q: %v", tag[:], err)
	}
	r.chunk = string(tag[:])
	r.kind = ChunkKind(kind)
	r.headerRead = false
	r.done = false
	r.current = nil
	if r.kind != ChunkArray && r.kind != ChunkTable {
		return "", 0, &CorruptError{Chunk: r.chunk, Reason: fmt.Sprintf("unknown chunk kind %d", kind)}
	}
	return r.chunk, r.kind, nil
}

// HasTableHeader reports whether the current chunk carries a table header.
func (r *Reader) HasTableHeader() bool {
	return r.kind == ChunkTable && r.version >= VersionTableChunks
}

// ReadTableHeader reads the table header of the current chunk. Chunks
// without a header return a nil slice.
func (r *Reader) ReadTableHeader() ([]HeaderField, error) {
	if r.headerRead {
		return nil, fmt.Errorf("savegame: chunk %s: table header already read", r.chunk)
	}
	r.headerRead = true
	if !r.HasTableHeader() {
		return nil, nil
	}
	var fields []HeaderField
	for {
		kind, err := r.r.ReadByte()
		if err != nil {
			return nil, r.corrupt("truncated table header: %v", err)
		}
		if kind == 0 {
			return fields, nil
		}
		if !Kind(kind).valid() {
			return nil, r.corrupt("table header has invalid field kind %d", kind)
		}
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		fields = append(fields, HeaderField{Name: name, Kind: Kind(kind)})
	}
}

// IterateArray returns the next element of the current chunk. At the array
// terminator it returns index -1 and a nil record.
func (r *Reader) IterateArray() (int, *RecordReader, error) {
	if r.chunk == "" {
		return -1, nil, fmt.Errorf("savegame: no chunk to iterate")
	}
	if r.done {
		return -1, nil, nil
	}
	if r.HasTableHeader() && !r.headerRead {
		return -1, nil, fmt.Errorf("savegame: chunk %s: table header not read", r.chunk)
	}
	if r.current != nil && r.current.Remaining() != 0 {
		return -1, nil, r.corrupt("record %d has %d unread bytes", r.current.index, r.current.Remaining())
	}
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		return -1, nil, r.corrupt("truncated array length: %v", err)
	}
	if size == 0 {
		r.done = true
		r.current = nil
		return -1, nil, nil
	}
	size--
	if size > MaxRecordSize {
		return -1, nil, r.corrupt("record of %d bytes exceeds limit", size)
	}
	index, err := binary.ReadUvarint(r.r)
	if err != nil {
		return -1, nil, r.corrupt("truncated array index: %v", err)
	}
	if index > uint64(^uint32(0)>>1) {
		return -1, nil, r.corrupt("array index %d out of range", index)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return -1, nil, r.corrupt("truncated record %d: %v", index, err)
	}
	r.current = &RecordReader{data: body, index: int(index), version: r.version}
	return int(index), r.current, nil
}

// SkipChunk discards the remainder of the current chunk.
func (r *Reader) SkipChunk() error {
	if r.HasTableHeader() && !r.headerRead {
		if _, err := r.ReadTableHeader(); err != nil {
			return err
		}
	}
	for {
		index, rec, err := r.IterateArray()
		if err != nil {
			return err
		}
		if index == -1 {
			return nil
		}
		rec.ReadRest()
	}
}

func (r *Reader) readString() (string, error) {
	length, err := binary.ReadUvarint(r.r)
	if err != nil {
		return "", r.corrupt("truncated string length: %v", err)
	}
	if length > MaxRecordSize {
		return "", r.corrupt("string of %d bytes exceeds limit", length)
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return "", r.corrupt("truncated string")
		}
		return "", err
	}
	return string(raw), nil
}

func (r *Reader) corrupt(format string, args ...any) error {
	return &CorruptError{Chunk: r.chunk, Reason: fmt.Sprintf(format, args...)}
}
