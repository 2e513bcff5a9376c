package savegame

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func writeStream(t *testing.T, version Version, fn func(w *Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, version)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	fn(w)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestWriterReaderRoundTripWithTableHeader(t *testing.T) {
	header := []HeaderField{{Name: "name", Kind: KindString}, {Name: "version", Kind: KindUint32}}
	raw := writeStream(t, CurrentVersion, func(w *Writer) {
		if err := w.BeginChunk("TEST", ChunkTable); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := w.WriteTableHeader(header); err != nil {
			t.Fatalf("header: %v", err)
		}
		for i, name := range []string{"alpha", "", "gamma"} {
			if err := w.WriteElement(i*2, func(rec *RecordWriter) error {
				rec.WriteString(name)
				rec.WriteUint32(uint32(i))
				rec.WriteBool(i%2 == 0)
				return nil
			}); err != nil {
				t.Fatalf("element: %v", err)
			}
		}
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end: %v", err)
		}
	})

	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if r.Version() != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, r.Version())
	}
	tag, kind, err := r.NextChunk()
	if err != nil || tag != "TEST" || kind != ChunkTable {
		t.Fatalf("unexpected chunk %q kind=%d err=%v", tag, kind, err)
	}
	gotHeader, err := r.ReadTableHeader()
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if len(gotHeader) != 2 || gotHeader[0] != header[0] || gotHeader[1] != header[1] {
		t.Fatalf("unexpected header %+v", gotHeader)
	}

	var names []string
	var indexes []int
	for {
		index, rec, err := r.IterateArray()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if index == -1 {
			break
		}
		name, err := rec.ReadString()
		if err != nil {
			t.Fatalf("read name: %v", err)
		}
		if _, err := rec.ReadUint32(); err != nil {
			t.Fatalf("read version: %v", err)
		}
		if _, err := rec.ReadBool(); err != nil {
			t.Fatalf("read flag: %v", err)
		}
		names = append(names, name)
		indexes = append(indexes, index)
	}
	if len(names) != 3 || names[0] != "alpha" || names[1] != "" || names[2] != "gamma" {
		t.Fatalf("unexpected names %q", names)
	}
	if indexes[0] != 0 || indexes[1] != 2 || indexes[2] != 4 {
		t.Fatalf("unexpected indexes %v", indexes)
	}
	if _, _, err := r.NextChunk(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after last chunk, got %v", err)
	}
}

func TestTableHeaderOmittedBeforeTableChunks(t *testing.T) {
	raw := writeStream(t, VersionTableChunks-1, func(w *Writer) {
		_ = w.BeginChunk("TEST", ChunkTable)
		if err := w.WriteTableHeader([]HeaderField{{Name: "name", Kind: KindString}}); err != nil {
			t.Fatalf("header: %v", err)
		}
		_ = w.WriteElement(0, func(rec *RecordWriter) error {
			rec.WriteString("legacy")
			return nil
		})
		_ = w.EndChunk()
	})

	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if _, _, err := r.NextChunk(); err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	if r.HasTableHeader() {
		t.Fatalf("expected no table header for old stream")
	}
	header, err := r.ReadTableHeader()
	if err != nil || header != nil {
		t.Fatalf("expected nil header, got %+v err=%v", header, err)
	}
	_, rec, err := r.IterateArray()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if name, _ := rec.ReadString(); name != "legacy" {
		t.Fatalf("expected legacy record, got %q", name)
	}
}

func TestIterateArrayRejectsUnreadRecordBytes(t *testing.T) {
	raw := writeStream(t, CurrentVersion, func(w *Writer) {
		_ = w.BeginChunk("TEST", ChunkArray)
		_ = w.WriteElement(0, func(rec *RecordWriter) error {
			rec.WriteString("one")
			rec.WriteString("two")
			return nil
		})
		_ = w.EndChunk()
	})

	r, _ := NewReader(bytes.NewReader(raw))
	_, _, _ = r.NextChunk()
	_, rec, err := r.IterateArray()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if _, err := rec.ReadString(); err != nil {
		t.Fatalf("read: %v", err)
	}
	_, _, err = r.IterateArray()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corrupt error for unread bytes, got %v", err)
	}
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) || corrupt.Chunk != "TEST" {
		t.Fatalf("expected chunk tag on corrupt error, got %v", err)
	}
}

func TestRecordReaderTruncation(t *testing.T) {
	rec := NewRecordReader(3, CurrentVersion, []byte{0x05, 'a', 'b'})
	if _, err := rec.ReadString(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected truncated string to be corrupt, got %v", err)
	}

	rec = NewRecordReader(3, CurrentVersion, []byte{0x00, 0x01})
	if _, err := rec.ReadUint32(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected truncated uint32 to be corrupt, got %v", err)
	}

	rec = NewRecordReader(3, CurrentVersion, []byte{0x02})
	if _, err := rec.ReadBool(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected invalid bool to be corrupt, got %v", err)
	}
}

func TestRecordReaderSkip(t *testing.T) {
	w := &RecordWriter{}
	w.WriteBool(true)
	w.WriteUint32(7)
	w.WriteString("settings")
	w.WriteString("tail")

	rec := NewRecordReader(0, CurrentVersion, w.buf.Bytes())
	for _, kind := range []Kind{KindBool, KindUint32, KindString} {
		if err := rec.Skip(kind); err != nil {
			t.Fatalf("skip %s: %v", kind, err)
		}
	}
	tail, err := rec.ReadString()
	if err != nil || tail != "tail" {
		t.Fatalf("expected tail after skips, got %q err=%v", tail, err)
	}
	if rec.Remaining() != 0 {
		t.Fatalf("expected record consumed, %d bytes left", rec.Remaining())
	}
}

func TestWriterRejectsDescendingIndexes(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, CurrentVersion)
	_ = w.BeginChunk("TEST", ChunkArray)
	if err := w.WriteElement(2, nil); err != nil {
		t.Fatalf("element: %v", err)
	}
	if err := w.WriteElement(1, nil); err == nil {
		t.Fatalf("expected error for descending index")
	}
}

func TestNewReaderRejectsBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("NOPE\x01\x00")))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

type recordingHandler struct {
	tag    string
	values []string
	loaded []string
	fail   error
}

func (h *recordingHandler) Tag() string     { return h.tag }
func (h *recordingHandler) Kind() ChunkKind { return ChunkArray }

func (h *recordingHandler) Save(_ context.Context, w *Writer) error {
	for i, value := range h.values {
		if err := w.WriteElement(i, func(rec *RecordWriter) error {
			rec.WriteString(value)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *recordingHandler) Load(_ context.Context, r *Reader) error {
	for {
		index, rec, err := r.IterateArray()
		if err != nil {
			return err
		}
		if index == -1 {
			return nil
		}
		if h.fail != nil {
			return h.fail
		}
		value, err := rec.ReadString()
		if err != nil {
			return err
		}
		h.loaded = append(h.loaded, value)
	}
}

func TestHandlerTableSaveLoad(t *testing.T) {
	first := &recordingHandler{tag: "BBBB", values: []string{"b1", "b2"}}
	second := &recordingHandler{tag: "AAAA", values: []string{"a1"}}
	table, err := NewHandlerTable(first, second)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if tags := table.Tags(); len(tags) != 2 || tags[0] != "AAAA" {
		t.Fatalf("expected sorted tags, got %v", tags)
	}

	var buf bytes.Buffer
	if err := table.Save(context.Background(), &buf, CurrentVersion); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadFirst := &recordingHandler{tag: "BBBB"}
	loadSecond := &recordingHandler{tag: "AAAA"}
	loadTable, _ := NewHandlerTable(loadFirst, loadSecond)
	version, err := loadTable.Load(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, version)
	}
	if len(loadFirst.loaded) != 2 || loadSecond.loaded[0] != "a1" {
		t.Fatalf("unexpected loaded values %v %v", loadFirst.loaded, loadSecond.loaded)
	}
}

func TestHandlerTableLoadErrorsNameTheChunk(t *testing.T) {
	saver := &recordingHandler{tag: "AAAA", values: []string{"a1"}}
	table, _ := NewHandlerTable(saver)
	var buf bytes.Buffer
	if err := table.Save(context.Background(), &buf, CurrentVersion); err != nil {
		t.Fatalf("save: %v", err)
	}

	loader := &recordingHandler{tag: "AAAA", fail: Corruptf("bad slot")}
	loadTable, _ := NewHandlerTable(loader)
	_, err := loadTable.Load(context.Background(), bytes.NewReader(buf.Bytes()))
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) || corrupt.Chunk != "AAAA" {
		t.Fatalf("expected corrupt error naming chunk, got %v", err)
	}

	unknown, _ := NewHandlerTable(&recordingHandler{tag: "ZZZZ"})
	_, err = unknown.Load(context.Background(), bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected unknown chunk to be corrupt, got %v", err)
	}
}

func TestNewHandlerTableRejectsDuplicates(t *testing.T) {
	if _, err := NewHandlerTable(&recordingHandler{tag: "AAAA"}, &recordingHandler{tag: "AAAA"}); err == nil {
		t.Fatalf("expected duplicate tag error")
	}
	if _, err := NewHandlerTable(&recordingHandler{tag: "AAA"}); err == nil {
		t.Fatalf("expected short tag error")
	}
}
