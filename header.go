package bmff

import "math"

// sizeToEOF marks a box whose declared size was 0, meaning "extends to the
// end of the enclosing container" (spec: size==0-to-EOF convention).
const sizeToEOF = math.MaxUint64

// headerStatus reports how readBoxHeader terminated.
type headerStatus int

const (
	headerOK headerStatus = iota
	headerEOF                // clean end of the enclosing container, not an error
	headerError
)

// readBoxHeader reads one box header (size, type, optional extended size,
// optional fullbox version/flags) from src. Grounded on the teacher's
// Reader.Next() in reader.go: same size==1/size==0 handling and the same
// fullbox version + 24-bit-flags read order. A source that ends inside the
// header is reported as ErrStream.
func readBoxHeader(src *ByteSource) (Box, headerStatus, error) {
	if src.Empty() {
		return Box{}, headerEOF, nil
	}

	pos := src.Tell()
	size64, err := src.ReadBE32()
	if err != nil {
		return Box{}, headerError, wrapStream(pos, err)
	}
	size := uint64(size64)

	var t BoxType
	raw, err := src.ReadBytes(4)
	if err != nil {
		return Box{}, headerError, wrapStream(pos, err)
	}
	copy(t[:], raw)

	b := Box{Type: t, Pos: pos}

	if size == 1 {
		size, err = src.ReadBE64()
		if err != nil {
			return Box{}, headerError, wrapStream(pos, err)
		}
	}

	if t == TypeUUID {
		ut, err := src.ReadBytes(16)
		if err != nil {
			return Box{}, headerError, wrapStream(pos, err)
		}
		copy(b.UserType[:], ut)
	}

	if size == 0 {
		size = sizeToEOF
	}
	b.Size = size

	if IsFullBox(t) {
		vf, err := src.ReadBE32()
		if err != nil {
			return Box{}, headerError, wrapStream(pos, err)
		}
		b.HasFullBox = true
		b.Version = uint8(vf >> 24)
		b.Flags = vf & 0x00ffffff
	}

	return b, headerOK, nil
}

// TypeUUID is the extended-type box, carrying a 16-byte UserType after the
// ordinary header. Not in the teacher's original box.go; added so the
// header reader has somewhere to route the usertype bytes spec.md §6 calls
// out, without inventing a reader for it (uuid boxes are always read as
// opaque — see readUnknown).
var TypeUUID = BoxType{'u', 'u', 'i', 'd'}
