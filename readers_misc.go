package bmff

import "fmt"

// TrackReference holds the track reference box's children keyed by their
// own 4CC (the reference type — 'hint', 'cdsc', 'font', ...), each a list
// of referenced track IDs. tref's children are not a fixed, enumerable set
// of box types the way stsd's are, so they cannot be pre-registered one by
// one in the global dispatch table; readTref walks them itself.
type TrackReference struct {
	References map[BoxType][]uint32
}

func init() { registerGlobal(TypeTref, readTref, TypeTrak) }

func readTref(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	ref := &TrackReference{References: map[BoxType][]uint32{}}
	for src.Tell() < end {
		rhdr, status, err := readBoxHeader(src)
		if status != headerOK {
			break
		}
		childEnd := rhdr.Pos + rhdr.Size
		if rhdr.Size == sizeToEOF {
			childEnd = end
		}
		var ids []uint32
		for src.Tell() < childEnd {
			id, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		ref.References[rhdr.Type] = ids
		if err != nil {
			return nil, err
		}
	}
	n := hdr
	n.TrackRef = ref
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" referenceTypes=%d", len(n.TrackRef.References))
	})
	return node, nil
}

// Sidx is the segment index box: a byte/time map over one or more movie
// fragments, used for seeking without scanning moof boxes (spec.md §4,
// supplemented feature).
type SidxReference struct {
	ReferenceType      uint8 // 0: to media content, 1: to another sidx
	ReferencedSize     uint32
	SubsegmentDuration uint32
	StartsWithSAP      bool
	SAPType            uint8
	SAPDeltaTime       uint32
}

type Sidx struct {
	ReferenceId              uint32
	Timescale                uint32
	EarliestPresentationTime uint64
	FirstOffset              uint64
	References               []SidxReference
}

func init() { registerGlobal(TypeSidx, readSidx) } // legal anywhere; usually top-level or in moof

func readSidx(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Sidx{}
	var err error
	if s.ReferenceId, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if s.Timescale, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if hdr.Version == 0 {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		s.EarliestPresentationTime = uint64(v)
		v, err = src.ReadBE32()
		if err != nil {
			return nil, err
		}
		s.FirstOffset = uint64(v)
	} else {
		if s.EarliestPresentationTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if s.FirstOffset, err = src.ReadBE64(); err != nil {
			return nil, err
		}
	}
	if _, err := src.ReadBE16(); err != nil { // reserved
		return nil, err
	}
	count, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	n := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 12)
	for i := uint64(0); i < n; i++ {
		a, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		b, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		c, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		s.References = append(s.References, SidxReference{
			ReferenceType:      uint8(a >> 31),
			ReferencedSize:     a & 0x7fffffff,
			SubsegmentDuration: b,
			StartsWithSAP:      c>>31 != 0,
			SAPType:            uint8((c >> 28) & 0x7),
			SAPDeltaTime:       c & 0x0fffffff,
		})
	}
	nd := hdr
	nd.Sidx = s
	node := &nd
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" references=%d", len(n.Sidx.References)) })
	return node, nil
}

// Emsg is the event message box carrying DASH/CMAF event signaling
// (spec.md §4, supplemented feature).
type Emsg struct {
	SchemeIdUri          string
	Value                string
	Timescale            uint32
	PresentationTimeDelta uint32
	PresentationTime      uint64
	EventDuration        uint32
	Id                   uint32
	MessageData          []byte
}

func init() { registerGlobal(TypeEmsg, readEmsg) }

func readEmsg(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	e := &Emsg{}
	var err error
	if hdr.Version == 0 {
		if e.SchemeIdUri, err = readCString(src); err != nil {
			return nil, err
		}
		if e.Value, err = readCString(src); err != nil {
			return nil, err
		}
		if e.Timescale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.PresentationTimeDelta, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.EventDuration, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.Id, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	} else {
		if e.Timescale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.PresentationTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if e.EventDuration, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.Id, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if e.SchemeIdUri, err = readCString(src); err != nil {
			return nil, err
		}
		if e.Value, err = readCString(src); err != nil {
			return nil, err
		}
	}
	if e.MessageData, err = src.ReadUpTo(end); err != nil {
		return nil, err
	}
	n := hdr
	n.Emsg = e
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" schemeIdUri=%q id=%d", n.Emsg.SchemeIdUri, n.Emsg.Id) })
	return node, nil
}

// readCString reads bytes up to and including a NUL terminator, returning
// the string without it.
func readCString(src *ByteSource) (string, error) {
	var out []byte
	for {
		b, err := src.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
}

// Meta is the metadata box. Its own payload is just an hdlr plus an
// arbitrary bag of metadata-item containers (ilst, keys, ...) that this
// reader does not attempt to interpret further than the generic tree
// already does via Children.
type Meta struct{}

func init() { registerGlobal(TypeMeta, readMetaBox, BoxType{}, TypeMoov, TypeTrak, TypeUdta) }

// readMetaBox behaves like readContainer but is declared under its own name
// so it can carry a dedicated Meta marker and, unlike ordinary containers,
// tolerate being found at the true top level (parentType(nil) == BoxType{}).
func readMetaBox(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	n := hdr
	n.Meta = &Meta{}
	node := &n
	root.registerPrint(node, nil)
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

// readMdat and readFreeSpace both capture their payload verbatim into
// Buffer without a dedicated struct: mdat carries raw sample data with no
// internal structure this library interprets, and free/skip boxes are pure
// padding by definition.
func init() {
	registerGlobal(TypeMdat, readMdat)
	registerGlobal(TypeFree, readFreeSpace)
	registerGlobal(TypeSkip, readFreeSpace)
}

func readMdat(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	body, err := src.ReadUpTo(end)
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Buffer = body
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" bytes=%d", len(n.Buffer)) })
	return node, nil
}

func readFreeSpace(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	body, err := src.ReadUpTo(end)
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Buffer = body
	node := &n
	root.registerPrint(node, nil)
	return node, nil
}
