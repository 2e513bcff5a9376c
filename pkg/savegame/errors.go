package savegame

import (
	"errors"
	"fmt"
)

// ErrCorrupt is matched by every CorruptError via errors.Is.
var ErrCorrupt = errors.New("savegame: corrupt stream")

// CorruptError reports stream data that cannot be interpreted. It is always
// fatal for the load operation that encountered it.
type CorruptError struct {
	Chunk  string
	Reason string
}

func (e *CorruptError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Chunk == "" {
		return fmt.Sprintf("savegame: corrupt stream: %s", e.Reason)
	}
	return fmt.Sprintf("savegame: chunk %s: corrupt stream: %s", e.Chunk, e.Reason)
}

// Is lets errors.Is(err, ErrCorrupt) match any CorruptError.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Corruptf builds a CorruptError with a formatted reason.
func Corruptf(format string, args ...any) error {
	return &CorruptError{Reason: fmt.Sprintf(format, args...)}
}

// attachChunk names the chunk on corrupt errors that do not carry one yet and
// wraps anything else with the chunk tag.
func attachChunk(tag string, err error) error {
	if err == nil {
		return nil
	}
	var corrupt *CorruptError
	if errors.As(err, &corrupt) {
		if corrupt.Chunk == "" {
			corrupt.Chunk = tag
		}
		return err
	}
	return fmt.Errorf("savegame: chunk %s: %w", tag, err)
}
