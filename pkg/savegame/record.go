package savegame

import (
	"bytes"
	"encoding/binary"
)

// MaxRecordSize bounds a single record body.
const MaxRecordSize = 1 << 24

// RecordWriter accumulates one record body so it can be written with its
// length prefix once complete.
type RecordWriter struct {
	buf     bytes.Buffer
	version Version
}

// Version reports the version of the stream being written.
func (w *RecordWriter) Version() Version {
	return w.version
}

func (w *RecordWriter) WriteBool(value bool) {
	if value {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *RecordWriter) WriteUint32(value uint32) {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], value)
	w.buf.Write(raw[:])
}

// WriteString writes a length-prefixed string.
func (w *RecordWriter) WriteString(value string) {
	w.buf.Write(binary.AppendUvarint(nil, uint64(len(value))))
	w.buf.WriteString(value)
}

// Len reports the number of body bytes written so far.
func (w *RecordWriter) Len() int {
	return w.buf.Len()
}

// Bytes returns the encoded body written so far.
func (w *RecordWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// RecordReader is a cursor over one record body.
type RecordReader struct {
	data    []byte
	off     int
	index   int
	version Version
}

// NewRecordReader wraps a raw body. Chunk handlers receive readers from
// Reader.IterateArray; this constructor exists for tools and tests.
func NewRecordReader(index int, version Version, body []byte) *RecordReader {
	return &RecordReader{data: body, index: index, version: version}
}

// Index is the array index the record was stored under.
func (r *RecordReader) Index() int {
	return r.index
}

// Version reports the version of the stream being read.
func (r *RecordReader) Version() Version {
	return r.version
}

// Remaining reports unread body bytes.
func (r *RecordReader) Remaining() int {
	return len(r.data) - r.off
}

func (r *RecordReader) ReadBool() (bool, error) {
	if r.Remaining() < 1 {
		return false, r.truncated(KindBool)
	}
	value := r.data[r.off]
	r.off++
	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, Corruptf("record %d: invalid bool byte 0x%02x", r.index, value)
	}
}

func (r *RecordReader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, r.truncated(KindUint32)
	}
	value := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return value, nil
}

func (r *RecordReader) ReadString() (string, error) {
	length, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return "", r.truncated(KindString)
	}
	if length > uint64(r.Remaining()-n) {
		return "", r.truncated(KindString)
	}
	start := r.off + n
	end := start + int(length)
	r.off = end
	return string(r.data[start:end]), nil
}

// ReadRest returns every unread byte and marks the record consumed.
func (r *RecordReader) ReadRest() []byte {
	rest := append([]byte(nil), r.data[r.off:]...)
	r.off = len(r.data)
	return rest
}

// Skip consumes one field of the given kind without interpreting it.
func (r *RecordReader) Skip(kind Kind) error {
	var err error
	switch kind {
	case KindBool:
		_, err = r.ReadBool()
	case KindUint32:
		_, err = r.ReadUint32()
	case KindString:
		_, err = r.ReadString()
	default:
		err = Corruptf("record %d: cannot skip field of %s", r.index, kind)
	}
	return err
}

func (r *RecordReader) truncated(kind Kind) error {
	return Corruptf("record %d: truncated %s at offset %d", r.index, kind, r.off)
}
