package layout

import (
	"fmt"
	"io"
)

// Source is a sequential byte source that can skip forward.
type Source interface {
	io.Reader
	Skip(n int64) error
}

// Execute runs ops against src, filling dst in order. dst must be exactly
// the total size of all reads.
func Execute(src Source, ops []Op, dst []byte) error {
	var total int64
	for _, op := range ops {
		total += op.Read
	}
	if total != int64(len(dst)) {
		return fmt.Errorf("%w: destination holds %d bytes, operations read %d", ErrDestinationSize, len(dst), total)
	}

	var off int64
	for i, op := range ops {
		if op.Skip < 0 {
			return fmt.Errorf("op %d: negative skip %d", i, op.Skip)
		}
		if op.Skip > 0 {
			if err := src.Skip(op.Skip); err != nil {
				return fmt.Errorf("op %d: skipping %d bytes: %w", i, op.Skip, err)
			}
		}
		if _, err := io.ReadFull(src, dst[off:off+op.Read]); err != nil {
			return fmt.Errorf("op %d: reading %d bytes: %w", i, op.Read, err)
		}
		off += op.Read
	}
	return nil
}

// Read plans region r and executes it against src, which must be
// positioned at the start of the plane.
func Read(src Source, g Geometry, r Region, dst []byte) (Strategy, error) {
	s, ops, err := Plan(g, r)
	if err != nil {
		return s, err
	}
	return s, Execute(src, ops, dst)
}
