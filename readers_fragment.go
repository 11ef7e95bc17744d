package bmff

import "fmt"

// Mehd is the movie extends header box.
type Mehd struct{ FragmentDuration uint64 }

func init() { registerGlobal(TypeMehd, readMehd, TypeMvex) }

func readMehd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	m := &Mehd{}
	var err error
	if hdr.Version == 1 {
		m.FragmentDuration, err = src.ReadBE64()
	} else {
		var v uint32
		v, err = src.ReadBE32()
		m.FragmentDuration = uint64(v)
	}
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Mehd = m
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" fragmentDuration=%d", n.Mehd.FragmentDuration) })
	return node, nil
}

// Trex is the track extends box, supplying per-track defaults for movie
// fragments.
type Trex struct {
	TrackId                       uint32
	DefaultSampleDescriptionIndex uint32
	DefaultSampleDuration         uint32
	DefaultSampleSize             uint32
	DefaultSampleFlags            SampleFlags
}

func init() { registerGlobal(TypeTrex, readTrex, TypeMvex) }

func readTrex(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &Trex{}
	var err error
	if t.TrackId, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if t.DefaultSampleDescriptionIndex, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if t.DefaultSampleDuration, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if t.DefaultSampleSize, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	flags, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	t.DefaultSampleFlags = DecodeSampleFlags(flags)
	n := hdr
	n.Trex = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" trackId=%d", n.Trex.TrackId) })
	return node, nil
}

// Leva is the level assignment box.
type LevaEntry struct {
	TrackId            uint32
	PaddingFlag        bool
	AssignmentType     uint8
	GroupingType       [4]byte
	GroupingTypeParameter uint32
	SubTrackId         uint32
}
type Leva struct{ Entries []LevaEntry }

func init() { registerGlobal(TypeLeva, readLeva, TypeMvex) }

func readLeva(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	l := &Leva{}
	for i := uint8(0); i < count && src.Tell() < end; i++ {
		var e LevaEntry
		if e.TrackId, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		b, err := src.ReadByte()
		if err != nil {
			return nil, err
		}
		e.PaddingFlag = b&0x80 != 0
		e.AssignmentType = b & 0x7f
		if e.AssignmentType == 0 {
			gt, err := src.ReadBytes(4)
			if err != nil {
				return nil, err
			}
			copy(e.GroupingType[:], gt)
		} else if e.AssignmentType == 1 {
			if e.SubTrackId, err = src.ReadBE32(); err != nil {
				return nil, err
			}
		}
		l.Entries = append(l.Entries, e)
	}
	n := hdr
	n.Leva = l
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Leva.Entries)) })
	return node, nil
}

// Mfhd is the movie fragment header box.
type Mfhd struct{ SequenceNumber uint32 }

func init() { registerGlobal(TypeMfhd, readMfhd, TypeMoof) }

func readMfhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	seq, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Mfhd = &Mfhd{SequenceNumber: seq}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" seq=%d", n.Mfhd.SequenceNumber) })
	return node, nil
}

// Track fragment header flags, spec.md §6.
const (
	TfhdBaseDataOffsetPresent         = 0x000001
	TfhdSampleDescriptionIndexPresent = 0x000002
	TfhdDefaultSampleDurationPresent  = 0x000008
	TfhdDefaultSampleSizePresent      = 0x000010
	TfhdDefaultSampleFlagsPresent     = 0x000020
	TfhdDurationIsEmpty               = 0x010000
	TfhdDefaultBaseIsMoof             = 0x020000
)

// Tfhd is the track fragment header box.
type Tfhd struct {
	TrackId                  uint32
	BaseDataOffset           uint64
	SampleDescriptionIndex   uint32
	DefaultSampleDuration    uint32
	DefaultSampleSize        uint32
	DefaultSampleFlags       SampleFlags
}

func init() { registerGlobal(TypeTfhd, readTfhd, TypeTraf) }

func readTfhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &Tfhd{}
	var err error
	if t.TrackId, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	flags := hdr.Flags
	if flags&TfhdBaseDataOffsetPresent != 0 {
		if t.BaseDataOffset, err = src.ReadBE64(); err != nil {
			return nil, err
		}
	}
	if flags&TfhdSampleDescriptionIndexPresent != 0 {
		if t.SampleDescriptionIndex, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	if flags&TfhdDefaultSampleDurationPresent != 0 {
		if t.DefaultSampleDuration, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	if flags&TfhdDefaultSampleSizePresent != 0 {
		if t.DefaultSampleSize, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	if flags&TfhdDefaultSampleFlagsPresent != 0 {
		sf, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.DefaultSampleFlags = DecodeSampleFlags(sf)
	}
	n := hdr
	n.Tfhd = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" trackId=%d", n.Tfhd.TrackId) })
	return node, nil
}

// Tfdt is the track fragment decode time box.
type Tfdt struct{ BaseMediaDecodeTime uint64 }

func init() { registerGlobal(TypeTfdt, readTfdt, TypeTraf) }

func readTfdt(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &Tfdt{}
	var err error
	if hdr.Version == 1 {
		t.BaseMediaDecodeTime, err = src.ReadBE64()
	} else {
		var v uint32
		v, err = src.ReadBE32()
		t.BaseMediaDecodeTime = uint64(v)
	}
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Tfdt = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" baseMediaDecodeTime=%d", n.Tfdt.BaseMediaDecodeTime) })
	return node, nil
}

// Track fragment run flags, spec.md §6.
const (
	TrunDataOffsetPresent                  = 0x000001
	TrunFirstSampleFlagsPresent             = 0x000004
	TrunSampleDurationPresent              = 0x000100
	TrunSampleSizePresent                  = 0x000200
	TrunSampleFlagsPresent                 = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

// TrunEntry is one sample row of a trun box; only the columns its flags
// select are meaningful.
type TrunEntry struct {
	SampleDuration              uint32
	SampleSize                  uint32
	SampleFlags                 SampleFlags
	SampleCompositionTimeOffset int32
}

// Trun is the track fragment run box.
type Trun struct {
	DataOffset       int32
	FirstSampleFlags SampleFlags
	Entries          []TrunEntry
}

func init() { registerGlobal(TypeTrun, readTrun, TypeTraf) }

func readTrun(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	flags := hdr.Flags
	t := &Trun{}
	if flags&TrunDataOffsetPresent != 0 {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.DataOffset = int32(v)
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.FirstSampleFlags = DecodeSampleFlags(v)
	}

	stride := 0
	if flags&TrunSampleDurationPresent != 0 {
		stride += 4
	}
	if flags&TrunSampleSizePresent != 0 {
		stride += 4
	}
	if flags&TrunSampleFlagsPresent != 0 {
		stride += 4
	}
	if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
		stride += 4
	}
	count64 := uint64(count)
	if stride > 0 {
		count64 = clampCount(root, hdr.Type, count64, end-src.Tell(), stride)
	} else if tooLarge(count64, 1) {
		root.Logger().Warn().Err(allocErr(hdr.Type, count64)).Msg("entry count exceeds allocation guard, clamping")
		count64 = 1 << 20
	}

	t.Entries = make([]TrunEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		var e TrunEntry
		if flags&TrunSampleDurationPresent != 0 {
			if e.SampleDuration, err = src.ReadBE32(); err != nil {
				return nil, err
			}
		}
		if flags&TrunSampleSizePresent != 0 {
			if e.SampleSize, err = src.ReadBE32(); err != nil {
				return nil, err
			}
		}
		if flags&TrunSampleFlagsPresent != 0 {
			v, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.SampleFlags = DecodeSampleFlags(v)
		}
		if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
			v, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.SampleCompositionTimeOffset = int32(v)
		}
		t.Entries = append(t.Entries, e)
	}
	n := hdr
	n.Trun = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Trun.Entries)) })
	return node, nil
}
