package bmff

import "fmt"

// TfraEntry is one row of a Tfra seek index.
type TfraEntry struct {
	Time           uint64
	MoofOffset     uint64
	TrafNumber     uint32
	TrunNumber     uint32
	SampleNumber   uint32
}

// Tfra is the track fragment random access box: a seek index mapping
// presentation times to moof/traf byte offsets for one track.
type Tfra struct {
	TrackId              uint32
	LengthSizeOfTrafNum  uint8
	LengthSizeOfTrunNum  uint8
	LengthSizeOfSampleNum uint8
	Entries              []TfraEntry
}

func init() { registerGlobal(TypeTfra, readTfra, TypeMfra) }

// readFieldBySize reads a big-endian field whose width is encoded by a
// 2-bit size code (0->1 byte, 1->2 bytes, 2->3 bytes, 3->4 bytes), the
// convention tfra uses for its three variable-width row columns.
func readFieldBySize(src *ByteSource, sizeCode uint8) (uint64, error) {
	switch sizeCode {
	case 0:
		b, err := src.ReadByte()
		return uint64(b), err
	case 1:
		v, err := src.ReadBE16()
		return uint64(v), err
	case 2:
		v, err := src.ReadBE24()
		return uint64(v), err
	default:
		v, err := src.ReadBE32()
		return uint64(v), err
	}
}

func readTfra(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &Tfra{}
	var err error
	if t.TrackId, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	reserved, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	t.LengthSizeOfTrafNum = uint8((reserved >> 4) & 0x3)
	t.LengthSizeOfTrunNum = uint8((reserved >> 2) & 0x3)
	t.LengthSizeOfSampleNum = uint8(reserved & 0x3)

	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	timeWidth := uint64(8)
	if hdr.Version != 1 {
		timeWidth = 4
	}
	rowSize := int(timeWidth) + int(timeWidth) +
		int(t.LengthSizeOfTrafNum+1) + int(t.LengthSizeOfTrunNum+1) + int(t.LengthSizeOfSampleNum+1)
	n := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), rowSize)

	for i := uint64(0); i < n; i++ {
		var e TfraEntry
		if hdr.Version == 1 {
			if e.Time, err = src.ReadBE64(); err != nil {
				return nil, err
			}
			if e.MoofOffset, err = src.ReadBE64(); err != nil {
				return nil, err
			}
		} else {
			v, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.Time = uint64(v)
			v, err = src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.MoofOffset = uint64(v)
		}
		v, err := readFieldBySize(src, t.LengthSizeOfTrafNum)
		if err != nil {
			return nil, err
		}
		e.TrafNumber = uint32(v)
		if v, err = readFieldBySize(src, t.LengthSizeOfTrunNum); err != nil {
			return nil, err
		}
		e.TrunNumber = uint32(v)
		if v, err = readFieldBySize(src, t.LengthSizeOfSampleNum); err != nil {
			return nil, err
		}
		e.SampleNumber = uint32(v)
		t.Entries = append(t.Entries, e)
	}
	nd := hdr
	nd.Tfra = t
	node := &nd
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" trackId=%d entries=%d", n.Tfra.TrackId, len(n.Tfra.Entries)) })
	return node, nil
}

// Mfro is the movie fragment random access offset box: the trailing box
// that lets a reader locate mfra from the end of the file.
type Mfro struct{ Size uint32 }

func init() { registerGlobal(TypeMfro, readMfro, TypeMfra) }

func readMfro(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	size, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Mfro = &Mfro{Size: size}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" size=%d", n.Mfro.Size) })
	return node, nil
}
