package bmff

import "fmt"

// entry-count guard: refuse to preallocate for a declared count larger than
// what could possibly fit in the remaining bytes of this box, and truncate
// to what actually fits rather than fail — spec.md §8's "entry-count lie on
// stts" fixture. remaining itself comes from the box's declared size, which
// on a hostile file can claim far more than the stream actually holds, so
// the fit-based count is additionally capped by tooLarge before it is ever
// used as a slice-capacity hint: a reader must never let an attacker-chosen
// number steer a single allocation, even one "justified" by the box's own
// declared length.
func clampCount(root *Root, t BoxType, declared, remaining uint64, elemSize int) uint64 {
	fit := remaining / uint64(elemSize)
	count := declared
	if declared > fit {
		root.warnShortRead(t, remaining, fmt.Errorf("declared %d entries, only %d fit in %d remaining bytes", declared, fit, remaining))
		count = fit
	}
	if tooLarge(count, elemSize) {
		root.Logger().Warn().Err(allocErr(t, count)).Msg("entry count exceeds allocation guard, clamping")
		count = (1 << 20)
	}
	return count
}

// Stts is the decoding time-to-sample box.
type SttsEntry struct{ SampleCount, SampleDelta uint32 }
type Stts struct{ Entries []SttsEntry }

func init() { registerGlobal(TypeStts, readStts, TypeStbl) }

func readStts(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 8)
	entries := make([]SttsEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		sc, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		sd, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, SttsEntry{sc, sd})
	}
	n := hdr
	n.Stts = &Stts{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stts.Entries)) })
	return node, nil
}

// Ctts is the composition time-to-sample box. SampleOffset is signed only
// for version 1; version 0 stores an unsigned offset, but both are carried
// as int32 so callers don't need to branch on version.
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int32
}
type Ctts struct{ Entries []CttsEntry }

func init() { registerGlobal(TypeCtts, readCtts, TypeStbl) }

func readCtts(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 8)
	entries := make([]CttsEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		sc, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		off, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, CttsEntry{sc, int32(off)})
	}
	n := hdr
	n.Ctts = &Ctts{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Ctts.Entries)) })
	return node, nil
}

// Cslg is the composition to decode box (QuickTime/ISO edit helper).
type Cslg struct {
	CompositionToDTSShift       int64
	LeastDecodeToDisplayDelta   int64
	GreatestDecodeToDisplayDelta int64
	CompositionStartTime        int64
	CompositionEndTime          int64
}

func init() { registerGlobal(TypeCslg, readCslg, TypeStbl) }

func readCslg(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	c := &Cslg{}
	read := func() (int64, error) {
		if hdr.Version == 1 {
			v, err := src.ReadBE64()
			return int64(v), err
		}
		v, err := src.ReadBE32()
		return int64(int32(v)), err
	}
	fields := []*int64{&c.CompositionToDTSShift, &c.LeastDecodeToDisplayDelta, &c.GreatestDecodeToDisplayDelta, &c.CompositionStartTime, &c.CompositionEndTime}
	for _, f := range fields {
		v, err := read()
		if err != nil {
			return nil, err
		}
		*f = v
	}
	n := hdr
	n.Cslg = c
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" compositionStartTime=%d compositionEndTime=%d", n.Cslg.CompositionStartTime, n.Cslg.CompositionEndTime)
	})
	return node, nil
}

// Stsc is the sample-to-chunk box.
type StscEntry struct{ FirstChunk, SamplesPerChunk, SampleDescriptionIndex uint32 }
type Stsc struct{ Entries []StscEntry }

func init() { registerGlobal(TypeStsc, readStsc, TypeStbl) }

func readStsc(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 12)
	entries := make([]StscEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		fc, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		spc, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		sdi, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, StscEntry{fc, spc, sdi})
	}
	n := hdr
	n.Stsc = &Stsc{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stsc.Entries)) })
	return node, nil
}

// Stsz is the sample size box. SampleSize != 0 means every sample has that
// fixed size and Entries is left empty.
type Stsz struct {
	SampleSize uint32
	Entries    []uint32
}

func init() { registerGlobal(TypeStsz, readStsz, TypeStbl) }

func readStsz(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Stsz{}
	var err error
	if s.SampleSize, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	if s.SampleSize == 0 {
		count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 4)
		s.Entries = make([]uint32, 0, count64)
		for i := uint64(0); i < count64; i++ {
			v, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			s.Entries = append(s.Entries, v)
		}
	}
	n := hdr
	n.Stsz = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d fixedSize=%d", len(n.Stsz.Entries), n.Stsz.SampleSize) })
	return node, nil
}

// Stz2 is the compact sample size box, supplemented from
// original_source/read.c's isom_read_stz2: field_size of 4, 8, or 16 bits
// per entry, two 4-bit entries packed per byte when field_size==4.
type Stz2 struct {
	FieldSize uint8
	Entries   []uint32
}

func init() { registerGlobal(TypeStz2, readStz2, TypeStbl) }

func readStz2(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	if err := src.Skip(3); err != nil { // reserved(24)
		return nil, err
	}
	fieldSize, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	s := &Stz2{FieldSize: fieldSize}
	remaining := end - src.Tell()
	switch fieldSize {
	case 16:
		count64 := clampCount(root, hdr.Type, uint64(count), remaining, 2)
		for i := uint64(0); i < count64; i++ {
			v, err := src.ReadBE16()
			if err != nil {
				return nil, err
			}
			s.Entries = append(s.Entries, uint32(v))
		}
	case 8:
		count64 := clampCount(root, hdr.Type, uint64(count), remaining, 1)
		for i := uint64(0); i < count64; i++ {
			v, err := src.ReadByte()
			if err != nil {
				return nil, err
			}
			s.Entries = append(s.Entries, uint32(v))
		}
	case 4:
		count64 := clampCount(root, hdr.Type, (uint64(count)+1)/2, remaining, 1) * 2
		if count64 > uint64(count) {
			count64 = uint64(count)
		}
		for i := uint64(0); i < count64; i += 2 {
			b, err := src.ReadByte()
			if err != nil {
				return nil, err
			}
			s.Entries = append(s.Entries, uint32(b>>4))
			if i+1 < count64 {
				s.Entries = append(s.Entries, uint32(b&0x0f))
			}
		}
	default:
		return nil, fmt.Errorf("stz2: invalid field_size %d", fieldSize)
	}
	n := hdr
	n.Stz2 = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d fieldSize=%d", len(n.Stz2.Entries), n.Stz2.FieldSize) })
	return node, nil
}

// Stco is the chunk offset box (32-bit offsets).
type Stco struct{ Entries []uint32 }

func init() { registerGlobal(TypeStco, readStco, TypeStbl) }

func readStco(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 4)
	entries := make([]uint32, 0, count64)
	for i := uint64(0); i < count64; i++ {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, v)
	}
	n := hdr
	n.Stco = &Stco{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stco.Entries)) })
	return node, nil
}

// Co64 is the 64-bit chunk offset box.
type Co64 struct{ Entries []uint64 }

func init() { registerGlobal(TypeCo64, readCo64, TypeStbl) }

func readCo64(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 8)
	entries := make([]uint64, 0, count64)
	for i := uint64(0); i < count64; i++ {
		v, err := src.ReadBE64()
		if err != nil {
			return nil, err
		}
		entries = append(entries, v)
	}
	n := hdr
	n.Co64 = &Co64{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Co64.Entries)) })
	return node, nil
}

// readUint32List reads a count-prefixed list of uint32 entries with no
// per-box semantics beyond that; readStss is its only caller.
func readUint32List(src *ByteSource, hdr Box, end uint64) ([]uint32, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(hdr.Root, hdr.Type, uint64(count), end-src.Tell(), 4)
	out := make([]uint32, 0, count64)
	for i := uint64(0); i < count64; i++ {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Stss is the sync sample box.
type Stss struct{ Entries []uint32 }

func init() { registerGlobal(TypeStss, readStss, TypeStbl) }

func readStss(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	entries, err := readUint32List(src, hdr, end)
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Stss = &Stss{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stss.Entries)) })
	return node, nil
}

// Stsh is the shadow sync sample box.
type StshEntry struct{ ShadowedSampleNumber, SyncSampleNumber uint32 }
type Stsh struct{ Entries []StshEntry }

func init() { registerGlobal(TypeStsh, readStsh, TypeStbl) }

func readStsh(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 8)
	entries := make([]StshEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		a, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		b, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, StshEntry{a, b})
	}
	n := hdr
	n.Stsh = &Stsh{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stsh.Entries)) })
	return node, nil
}

// Padb is the padding bits box: 4-bit fields packed two per byte; Pad holds
// both fields of every byte read, each masked to its low 3 bits.
type Padb struct{ Pad []uint8 } // each entry 0-7, only low 3 bits meaningful

func init() { registerGlobal(TypePadb, readPadb, TypeStbl) }

func readPadb(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	nBytes := clampCount(root, hdr.Type, (uint64(count)+1)/2, end-src.Tell(), 1)
	raw, err := src.ReadBytes(nBytes)
	if err != nil {
		return nil, err
	}
	pad := make([]uint8, 0, len(raw)*2)
	for _, b := range raw {
		pad = append(pad, (b>>4)&0x07, b&0x07)
	}
	n := hdr
	n.Padb = &Padb{Pad: pad}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Padb.Pad)) })
	return node, nil
}

// Stdp is the degradation priority box: one uint16 per sample.
type Stdp struct{ Priorities []uint16 }

func init() { registerGlobal(TypeStdp, readStdp, TypeStbl) }

func readStdp(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	var out []uint16
	for src.Tell()+2 <= end {
		v, err := src.ReadBE16()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	n := hdr
	n.Stdp = &Stdp{Priorities: out}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stdp.Priorities)) })
	return node, nil
}

// Sdtp is the independent and disposable samples box: one sample-flags-like
// byte per sample (is_leading/depends_on/is_depended_on/has_redundancy, 2
// bits each).
type Sdtp struct{ Entries []SampleFlags }

func init() { registerGlobal(TypeSdtp, readSdtp, TypeStbl, TypeTraf) }

// decodeSdtpByte unpacks one sdtp entry byte. Unlike the 32-bit sample_flags
// word (sampleflags.go), sdtp has no reserved bits and no padding/sync/
// degradation-priority columns: the whole byte is four 2-bit fields, MSB
// first, grounded on original_source/read.c's isom_read_sdtp.
//
//	is_leading(2) depends_on(2) is_depended_on(2) has_redundancy(2)
func decodeSdtpByte(b byte) SampleFlags {
	return SampleFlags{
		IsLeading:     (b >> 6) & 0x3,
		DependsOn:     (b >> 4) & 0x3,
		IsDependedOn:  (b >> 2) & 0x3,
		HasRedundancy: b & 0x3,
	}
}

func readSdtp(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	var out []SampleFlags
	for src.Tell() < end {
		b, err := src.ReadByte()
		if err != nil {
			return nil, err
		}
		out = append(out, decodeSdtpByte(b))
	}
	n := hdr
	n.Sdtp = &Sdtp{Entries: out}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Sdtp.Entries)) })
	return node, nil
}

// Sbgp is the sample-to-group box.
type SbgpEntry struct{ SampleCount, GroupDescriptionIndex uint32 }
type Sbgp struct {
	GroupingType      [4]byte
	GroupingTypeParam uint32
	Entries           []SbgpEntry
}

func init() { registerGlobal(TypeSbgp, readSbgp, TypeStbl, TypeTraf) }

func readSbgp(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Sbgp{}
	gt, err := src.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(s.GroupingType[:], gt)
	if hdr.Version == 1 {
		if s.GroupingTypeParam, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 8)
	for i := uint64(0); i < count64; i++ {
		sc, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		gi, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, SbgpEntry{sc, gi})
	}
	n := hdr
	n.Sbgp = s
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" groupingType=%s entries=%d", string(n.Sbgp.GroupingType[:]), len(n.Sbgp.Entries))
	})
	return node, nil
}

// Sgpd is the sample group description box. Description payloads vary by
// grouping_type and are kept as raw bytes (interpreting them is codec/
// grouping-type-specific and out of scope for this demuxer).
type SgpdEntry struct{ Description []byte }
type Sgpd struct {
	GroupingType          [4]byte
	DefaultLength         uint32
	DefaultSampleDescIdx  uint32
	Entries               []SgpdEntry
}

func init() { registerGlobal(TypeSgpd, readSgpd, TypeStbl, TypeTraf) }

func readSgpd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Sgpd{}
	gt, err := src.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(s.GroupingType[:], gt)
	if hdr.Version == 1 {
		if s.DefaultLength, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	if hdr.Version >= 2 {
		if s.DefaultSampleDescIdx, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count && src.Tell() < end; i++ {
		length := s.DefaultLength
		if hdr.Version == 1 && length == 0 {
			l, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			length = l
		}
		if src.Tell()+uint64(length) > end {
			length = uint32(end - src.Tell())
		}
		desc, err := src.ReadBytes(uint64(length))
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, SgpdEntry{Description: desc})
	}
	n := hdr
	n.Sgpd = s
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" groupingType=%s entries=%d", string(n.Sgpd.GroupingType[:]), len(n.Sgpd.Entries))
	})
	return node, nil
}

// Subs is the sub-sample information box.
type SubsSubsample struct {
	SubsampleSize       uint32
	SubsamplePriority   uint8
	Discardable         uint8
	CodecSpecificParams uint32
}
type SubsEntry struct {
	SampleDelta uint32
	Subsamples  []SubsSubsample
}
type Subs struct{ Entries []SubsEntry }

func init() { registerGlobal(TypeSubs, readSubs, TypeStbl, TypeTraf) }

func readSubs(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	s := &Subs{}
	for i := uint32(0); i < count && src.Tell() < end; i++ {
		delta, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		subCount, err := src.ReadBE16()
		if err != nil {
			return nil, err
		}
		entry := SubsEntry{SampleDelta: delta}
		for j := uint16(0); j < subCount; j++ {
			var sub SubsSubsample
			if hdr.Version == 1 {
				if sub.SubsampleSize, err = src.ReadBE32(); err != nil {
					return nil, err
				}
			} else {
				v, err := src.ReadBE16()
				if err != nil {
					return nil, err
				}
				sub.SubsampleSize = uint32(v)
			}
			if sub.SubsamplePriority, err = src.ReadByte(); err != nil {
				return nil, err
			}
			if sub.Discardable, err = src.ReadByte(); err != nil {
				return nil, err
			}
			if sub.CodecSpecificParams, err = src.ReadBE32(); err != nil {
				return nil, err
			}
			entry.Subsamples = append(entry.Subsamples, sub)
		}
		s.Entries = append(s.Entries, entry)
	}
	n := hdr
	n.Subs = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Subs.Entries)) })
	return node, nil
}

// Saiz is the sample auxiliary information sizes box.
type Saiz struct {
	AuxInfoType          [4]byte
	AuxInfoTypeParameter uint32
	DefaultSampleInfoSize uint8
	SampleInfoSizes      []uint8
}

func init() { registerGlobal(TypeSaiz, readSaiz, TypeStbl, TypeTraf) }

func readSaiz(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Saiz{}
	if hdr.Flags&0x1 != 0 {
		t, err := src.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		copy(s.AuxInfoType[:], t)
		if s.AuxInfoTypeParameter, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	var err error
	if s.DefaultSampleInfoSize, err = src.ReadByte(); err != nil {
		return nil, err
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	if s.DefaultSampleInfoSize == 0 {
		count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), 1)
		s.SampleInfoSizes = make([]uint8, 0, count64)
		for i := uint64(0); i < count64; i++ {
			v, err := src.ReadByte()
			if err != nil {
				return nil, err
			}
			s.SampleInfoSizes = append(s.SampleInfoSizes, v)
		}
	}
	n := hdr
	n.Saiz = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Saiz.SampleInfoSizes)) })
	return node, nil
}

// Saio is the sample auxiliary information offsets box.
type Saio struct {
	AuxInfoType          [4]byte
	AuxInfoTypeParameter uint32
	Offsets              []uint64
}

func init() { registerGlobal(TypeSaio, readSaio, TypeStbl, TypeTraf) }

func readSaio(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Saio{}
	if hdr.Flags&0x1 != 0 {
		t, err := src.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		copy(s.AuxInfoType[:], t)
		var err2 error
		if s.AuxInfoTypeParameter, err2 = src.ReadBE32(); err2 != nil {
			return nil, err2
		}
	}
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	elemSize := 4
	if hdr.Version == 1 {
		elemSize = 8
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), elemSize)
	for i := uint64(0); i < count64; i++ {
		if hdr.Version == 1 {
			v, err := src.ReadBE64()
			if err != nil {
				return nil, err
			}
			s.Offsets = append(s.Offsets, v)
		} else {
			v, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			s.Offsets = append(s.Offsets, uint64(v))
		}
	}
	n := hdr
	n.Saio = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Saio.Offsets)) })
	return node, nil
}

// Elst is the edit list box.
type ElstEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
}
type Elst struct{ Entries []ElstEntry }

func init() { registerGlobal(TypeElst, readElst, TypeEdts) }

func readElst(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	elemSize := 12
	if hdr.Version == 1 {
		elemSize = 20
	}
	count64 := clampCount(root, hdr.Type, uint64(count), end-src.Tell(), elemSize)
	entries := make([]ElstEntry, 0, count64)
	for i := uint64(0); i < count64; i++ {
		var e ElstEntry
		if hdr.Version == 1 {
			d, err := src.ReadBE64()
			if err != nil {
				return nil, err
			}
			e.SegmentDuration = d
			mt, err := src.ReadBE64()
			if err != nil {
				return nil, err
			}
			e.MediaTime = int64(mt)
		} else {
			d, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.SegmentDuration = uint64(d)
			mt, err := src.ReadBE32()
			if err != nil {
				return nil, err
			}
			e.MediaTime = int64(int32(mt))
		}
		ri, err := src.ReadBE16()
		if err != nil {
			return nil, err
		}
		e.MediaRateInteger = int16(ri)
		rf, err := src.ReadBE16()
		if err != nil {
			return nil, err
		}
		e.MediaRateFraction = int16(rf)
		entries = append(entries, e)
	}
	n := hdr
	n.Elst = &Elst{Entries: entries}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Elst.Entries)) })
	return node, nil
}

// Dref is the data reference box; each entry (url, urn, or any other 4CC)
// is kept as a raw payload since this demuxer never resolves external data
// references.
type DrefEntry struct {
	Type BoxType
	Flags uint32
	Data  []byte
}
type Dref struct{ Entries []DrefEntry }

func init() { registerGlobal(TypeDref, readDref, TypeDinf) }

func readDref(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	d := &Dref{}
	for i := uint32(0); i < count && src.Tell()+8 <= end; i++ {
		entryHdr, status, err := readBoxHeader(src)
		if status != headerOK || err != nil {
			break
		}
		entryEnd := entryHdr.Pos + entryHdr.Size
		if entryHdr.Size == sizeToEOF || entryEnd > end {
			entryEnd = end
		}
		var data []byte
		if entryEnd > src.Tell() {
			data, err = src.ReadBytes(entryEnd - src.Tell())
			if err != nil {
				return nil, err
			}
		}
		d.Entries = append(d.Entries, DrefEntry{Type: entryHdr.Type, Flags: entryHdr.Flags, Data: data})
	}
	n := hdr
	n.Dref = d
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Dref.Entries)) })
	return node, nil
}
