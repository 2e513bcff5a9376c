package savegame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ChunkHandler saves and loads one chunk.
type ChunkHandler interface {
	Tag() string
	Kind() ChunkKind
	Save(ctx context.Context, w *Writer) error
	Load(ctx context.Context, r *Reader) error
}

// HandlerTable registers chunk handlers by tag.
type HandlerTable struct {
	handlers map[string]ChunkHandler
}

// NewHandlerTable builds a table, rejecting nil handlers and duplicate tags.
func NewHandlerTable(handlers ...ChunkHandler) (*HandlerTable, error) {
	table := &HandlerTable{handlers: make(map[string]ChunkHandler, len(handlers))}
	for _, handler := range handlers {
		if handler == nil {
			return nil, fmt.Errorf("savegame: nil chunk handler")
		}
		tag := handler.Tag()
		if err := validTag(tag); err != nil {
			return nil, err
		}
		if _, exists := table.handlers[tag]; exists {
			return nil, fmt.Errorf("savegame: chunk %s already registered", tag)
		}
		table.handlers[tag] = handler
	}
	return table, nil
}

// Tags returns registered tags in save order.
func (t *HandlerTable) Tags() []string {
	if t == nil {
		return nil
	}
	tags := make([]string, 0, len(t.handlers))
	for tag := range t.handlers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Save writes a complete stream at version containing every registered chunk.
func (t *HandlerTable) Save(ctx context.Context, out io.Writer, version Version) error {
	w, err := NewWriter(out, version)
	if err != nil {
		return err
	}
	for _, tag := range t.Tags() {
		handler := t.handlers[tag]
		if err := w.BeginChunk(tag, handler.Kind()); err != nil {
			return err
		}
		if err := handler.Save(ctx, w); err != nil {
			return fmt.Errorf("savegame: save chunk %s: %w", tag, err)
		}
		if err := w.EndChunk(); err != nil {
			return err
		}
	}
	return w.Close()
}

// Load reads a complete stream, dispatching each chunk to its handler. Any
// error aborts the whole load.
func (t *HandlerTable) Load(ctx context.Context, in io.Reader) (Version, error) {
	r, err := NewReader(in)
	if err != nil {
		return 0, err
	}
	for {
		tag, kind, err := r.NextChunk()
		if errors.Is(err, io.EOF) {
			return r.Version(), nil
		}
		if err != nil {
			return r.Version(), err
		}
		handler, ok := t.handlers[tag]
		if !ok {
			return r.Version(), &CorruptError{Chunk: tag, Reason: "unknown chunk"}
		}
		if handler.Kind() != kind {
			return r.Version(), &CorruptError{Chunk: tag, Reason: fmt.Sprintf("chunk kind %d, expected %d", kind, handler.Kind())}
		}
		if err := handler.Load(ctx, r); err != nil {
			return r.Version(), attachChunk(tag, err)
		}
		if !r.done {
			return r.Version(), &CorruptError{Chunk: tag, Reason: "handler did not read the chunk to its terminator"}
		}
	}
}
