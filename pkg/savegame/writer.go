package savegame

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var streamMagic = [4]byte{'S', 'L', 'S', 'G'}

var endTag = [4]byte{}

// Writer emits a savegame stream. It is not safe for concurrent use; savegame
// I/O is exclusive by contract.
type Writer struct {
	w        *bufio.Writer
	version  Version
	chunk    string
	kind     ChunkKind
	header   bool
	err      error
	lastIdx  int
	elements int
}

// NewWriter writes the stream preamble for version and returns the writer.
func NewWriter(out io.Writer, version Version) (*Writer, error) {
	if out == nil {
		return nil, fmt.Errorf("savegame: writer is required")
	}
	w := &Writer{w: bufio.NewWriter(out), version: version}
	w.write(streamMagic[:])
	var raw [2]byte
	binary.BigEndian.PutUint16(raw[:], uint16(version))
	w.write(raw[:])
	if w.err != nil {
		return nil, w.err
	}
	return w, nil
}

// Version reports the version stamped on the stream.
func (w *Writer) Version() Version {
	return w.version
}

// BeginChunk opens a chunk. Every chunk must be closed with EndChunk.
func (w *Writer) BeginChunk(tag string, kind ChunkKind) error {
	if w.chunk != "" {
		return fmt.Errorf("savegame: chunk %s still open", w.chunk)
	}
	if err := validTag(tag); err != nil {
		return err
	}
	w.write([]byte(tag))
	w.write([]byte{byte(kind)})
	w.chunk = tag
	w.kind = kind
	w.header = false
	w.lastIdx = -1
	w.elements = 0
	return w.err
}

// HasTableHeader reports whether the open chunk carries a table header at
// this stream version.
func (w *Writer) HasTableHeader() bool {
	return w.kind == ChunkTable && w.version >= VersionTableChunks
}

// WriteTableHeader writes the field layout of the open table chunk. Streams
// older than VersionTableChunks predate headers, so the call is a no-op there.
func (w *Writer) WriteTableHeader(fields []HeaderField) error {
	if w.chunk == "" {
		return fmt.Errorf("savegame: table header outside of a chunk")
	}
	if w.kind != ChunkTable {
		return fmt.Errorf("savegame: chunk %s is not a table chunk", w.chunk)
	}
	if w.header || w.elements > 0 {
		return fmt.Errorf("savegame: chunk %s: table header must come first and only once", w.chunk)
	}
	w.header = true
	if !w.HasTableHeader() {
		return nil
	}
	for _, field := range fields {
		if !field.Kind.valid() {
			return fmt.Errorf("savegame: chunk %s: field %q has invalid %s", w.chunk, field.Name, field.Kind)
		}
		w.write([]byte{byte(field.Kind)})
		w.writeString(field.Name)
	}
	w.write([]byte{0})
	return w.err
}

// WriteElement writes one array element. fn fills the record body, which is
// length-prefixed automatically once fn returns.
func (w *Writer) WriteElement(index int, fn func(*RecordWriter) error) error {
	if w.chunk == "" {
		return fmt.Errorf("savegame: element outside of a chunk")
	}
	if index < 0 || index <= w.lastIdx {
		return fmt.Errorf("savegame: chunk %s: element index %d not ascending", w.chunk, index)
	}
	if w.HasTableHeader() && !w.header {
		return fmt.Errorf("savegame: chunk %s: table header not written", w.chunk)
	}
	rec := &RecordWriter{version: w.version}
	if fn != nil {
		if err := fn(rec); err != nil {
			return err
		}
	}
	if rec.Len() > MaxRecordSize {
		return fmt.Errorf("savegame: chunk %s: element %d exceeds %d bytes", w.chunk, index, MaxRecordSize)
	}
	w.writeUvarint(uint64(rec.Len()) + 1)
	w.writeUvarint(uint64(index))
	w.write(rec.buf.Bytes())
	w.lastIdx = index
	w.elements++
	return w.err
}

// EndChunk writes the array terminator and closes the chunk.
func (w *Writer) EndChunk() error {
	if w.chunk == "" {
		return fmt.Errorf("savegame: no open chunk")
	}
	w.writeUvarint(0)
	w.chunk = ""
	return w.err
}

// Close writes the end tag and flushes buffered output.
func (w *Writer) Close() error {
	if w.chunk != "" {
		return fmt.Errorf("savegame: chunk %s still open", w.chunk)
	}
	w.write(endTag[:])
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *Writer) writeUvarint(value uint64) {
	w.write(binary.AppendUvarint(nil, value))
}

func (w *Writer) writeString(value string) {
	w.writeUvarint(uint64(len(value)))
	w.write([]byte(value))
}

func validTag(tag string) error {
	if len(tag) != 4 {
		return fmt.Errorf("savegame: chunk tag %q must be 4 bytes", tag)
	}
	if tag == string(endTag[:]) {
		return fmt.Errorf("savegame: chunk tag %q is reserved", tag)
	}
	return nil
}
