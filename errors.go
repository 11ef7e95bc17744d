package bmff

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the fatal half of the error taxonomy. Non-fatal
// conditions (structural mismatch, parent-type violation, unknown type)
// never reach the caller as an error; they are logged and handled inline.
var (
	// ErrShortRead is returned when the source ends before a box's
	// declared fields or body can be fully read.
	ErrShortRead = errors.New("bmff: short read")

	// ErrStream is returned for an I/O failure from the underlying source,
	// and for a source that ends inside a box header.
	ErrStream = errors.New("bmff: stream error")

	// ErrAllocation is returned when a declared entry count or size
	// would require an implausibly large allocation.
	ErrAllocation = errors.New("bmff: refusing to allocate for box")

	// ErrMaxDepth is returned when box nesting exceeds maxNestingDepth.
	ErrMaxDepth = errors.New("bmff: max nesting depth exceeded")
)

// wrapShortRead annotates ErrShortRead with the offending box and position.
func wrapShortRead(boxType BoxType, pos uint64, err error) error {
	return errors.Wrapf(ErrShortRead, "box %s at offset %d: %v", boxType, pos, err)
}

// wrapStream annotates ErrStream with position context.
func wrapStream(pos uint64, err error) error {
	return errors.Wrapf(ErrStream, "at offset %d: %v", pos, err)
}

// tooLarge reports whether an entry count looks hostile rather than merely
// large, guarding against a declared count designed to exhaust memory.
func tooLarge(count uint64, elemSize int) bool {
	return count > (1 << 28) || count*uint64(elemSize) > (1<<32)
}

func allocErr(boxType BoxType, count uint64) error {
	return errors.Wrapf(ErrAllocation, "box %s: entry count %d", boxType, count)
}

// StructuralMismatch describes a non-fatal size discrepancy: a box declared
// one size but its typed reader consumed a different number of bytes. It is
// never returned as an error; it is logged and the node's Size field is
// rewritten to the consumed count.
type StructuralMismatch struct {
	Type     BoxType
	Declared uint64
	Consumed uint64
}

func (m StructuralMismatch) String() string {
	return fmt.Sprintf("[%s] box has extra bytes: %d", m.Type, int64(m.Declared)-int64(m.Consumed))
}
