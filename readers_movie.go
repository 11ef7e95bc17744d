package bmff

import "fmt"

// Mvhd is the movie header box. Field set and naming grounded on
// tetsuo-isobmff/codec.go's Mvhd struct; version-gated widths grounded on
// tetsuo-mp4/reader.go's ReadMvhd.
type Mvhd struct {
	CTime, MTime      uint64
	TimeScale         uint32
	Duration          uint64
	PreferredRate     int32
	PreferredVolume   int16
	Matrix            [9]int32
	PreviewTime       uint32
	PreviewDuration   uint32
	PosterTime        uint32
	SelectionTime     uint32
	SelectionDuration uint32
	CurrentTime       uint32
	NextTrackId       uint32
}

func init() { registerGlobal(TypeMvhd, readMvhd, TypeMoov) }

func readMvhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	m := &Mvhd{}
	var err error
	if hdr.Version == 1 {
		if m.CTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if m.MTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if m.TimeScale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if m.Duration, err = src.ReadBE64(); err != nil {
			return nil, err
		}
	} else {
		ct, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.CTime = uint64(ct)
		mt, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.MTime = uint64(mt)
		if m.TimeScale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		dur, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.Duration = uint64(dur)
	}
	rate, err := src.ReadBE32()
	if err != nil {
		return nil, err
	}
	m.PreferredRate = int32(rate)
	vol, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	m.PreferredVolume = int16(vol)
	if err := src.Skip(10); err != nil { // reserved(2) + reserved(8)
		return nil, err
	}
	for i := range m.Matrix {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.Matrix[i] = int32(v)
	}
	fields := []*uint32{&m.PreviewTime, &m.PreviewDuration, &m.PosterTime, &m.SelectionTime, &m.SelectionDuration, &m.CurrentTime}
	for _, f := range fields {
		if *f, err = src.ReadBE32(); err != nil {
			return nil, err
		}
	}
	if m.NextTrackId, err = src.ReadBE32(); err != nil {
		return nil, err
	}

	n := hdr
	n.Mvhd = m
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" timescale=%d duration=%d nextTrackId=%d", n.Mvhd.TimeScale, n.Mvhd.Duration, n.Mvhd.NextTrackId)
	})
	return node, nil
}

// Tkhd is the track header box.
type Tkhd struct {
	CTime, MTime   uint64
	TrackId        uint32
	Duration       uint64
	Layer          int16
	AlternateGroup int16
	Volume         int16
	Matrix         [9]int32
	TrackWidth     uint32 // 16.16 fixed point
	TrackHeight    uint32 // 16.16 fixed point
}

func init() { registerGlobal(TypeTkhd, readTkhd, TypeTrak) }

func readTkhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &Tkhd{}
	var err error
	if hdr.Version == 1 {
		if t.CTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if t.MTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if t.TrackId, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if err := src.Skip(4); err != nil { // reserved
			return nil, err
		}
		if t.Duration, err = src.ReadBE64(); err != nil {
			return nil, err
		}
	} else {
		ct, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.CTime = uint64(ct)
		mt, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.MTime = uint64(mt)
		if t.TrackId, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if err := src.Skip(4); err != nil {
			return nil, err
		}
		dur, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.Duration = uint64(dur)
	}
	if err := src.Skip(8); err != nil { // reserved(2x4)
		return nil, err
	}
	layer, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	t.Layer = int16(layer)
	ag, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	t.AlternateGroup = int16(ag)
	vol, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	t.Volume = int16(vol)
	if err := src.Skip(2); err != nil { // reserved
		return nil, err
	}
	for i := range t.Matrix {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		t.Matrix[i] = int32(v)
	}
	if t.TrackWidth, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if t.TrackHeight, err = src.ReadBE32(); err != nil {
		return nil, err
	}

	n := hdr
	n.Tkhd = t
	node := &n
	root.registerPrint(node, func(n *Box) string {
		tk := n.Tkhd
		return fmt.Sprintf(" trackId=%d duration=%d size=%dx%d", tk.TrackId, tk.Duration, tk.TrackWidth>>16, tk.TrackHeight>>16)
	})
	return node, nil
}

// Mdhd is the media header box.
type Mdhd struct {
	CTime, MTime uint64
	TimeScale    uint32
	Duration     uint64
	Language     uint16
	Quality      uint16
}

func init() { registerGlobal(TypeMdhd, readMdhd, TypeMdia) }

func readMdhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	m := &Mdhd{}
	var err error
	if hdr.Version == 1 {
		if m.CTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if m.MTime, err = src.ReadBE64(); err != nil {
			return nil, err
		}
		if m.TimeScale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		if m.Duration, err = src.ReadBE64(); err != nil {
			return nil, err
		}
	} else {
		ct, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.CTime = uint64(ct)
		mt, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.MTime = uint64(mt)
		if m.TimeScale, err = src.ReadBE32(); err != nil {
			return nil, err
		}
		dur, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		m.Duration = uint64(dur)
	}
	if m.Language, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if m.Quality, err = src.ReadBE16(); err != nil {
		return nil, err
	}

	n := hdr
	n.Mdhd = m
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" timescale=%d duration=%d lang=%d", n.Mdhd.TimeScale, n.Mdhd.Duration, n.Mdhd.Language)
	})
	return node, nil
}

// Hdlr is the handler reference box. Name is stored undecoded: QuickTime
// uses a Pascal string (length-prefixed), ISO uses a null-terminated one;
// spec.md §6 keeps that ambiguity and stores the raw trailing bytes,
// leaving interpretation to the caller.
type Hdlr struct {
	HandlerType [4]byte
	NameRaw     []byte
}

// Name decodes NameRaw as whichever convention it matches: a leading
// Pascal length byte equal to len(NameRaw)-1, else a null/UTF-8 string.
func (h *Hdlr) Name() string {
	if len(h.NameRaw) > 0 && int(h.NameRaw[0]) == len(h.NameRaw)-1 {
		return string(h.NameRaw[1:])
	}
	end := len(h.NameRaw)
	for i, b := range h.NameRaw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(h.NameRaw[:end])
}

func init() { registerGlobal(TypeHdlr, readHdlr, TypeMdia, TypeMeta, TypeMinf) }

func readHdlr(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	h := &Hdlr{}
	if err := src.Skip(4); err != nil { // pre_defined
		return nil, err
	}
	ht, err := src.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(h.HandlerType[:], ht)
	if err := src.Skip(12); err != nil { // reserved(3x4)
		return nil, err
	}
	if end != sizeToEOF && end > src.Tell() {
		h.NameRaw, err = src.ReadBytes(end - src.Tell())
		if err != nil {
			return nil, err
		}
	}

	n := hdr
	n.Hdlr = h
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" type=%s name=%q", string(n.Hdlr.HandlerType[:]), n.Hdlr.Name())
	})
	return node, nil
}

// Elng is the extended language tag box (ISO 639 BCP-47 string).
type Elng struct {
	Language string
}

func init() { registerGlobal(TypeElng, readElng, TypeMdia) }

func readElng(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	var raw []byte
	var err error
	if end != sizeToEOF && end > src.Tell() {
		raw, err = src.ReadBytes(end - src.Tell())
		if err != nil {
			return nil, err
		}
	}
	n := hdr
	n.Elng = &Elng{Language: nullTerminated(raw)}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" language=%q", n.Elng.Language) })
	return node, nil
}

func nullTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Vmhd is the video media header.
type Vmhd struct {
	GraphicsMode uint16
	Opcolor      [3]uint16
}

func init() { registerGlobal(TypeVmhd, readVmhd, TypeMinf) }

func readVmhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	v := &Vmhd{}
	var err error
	if v.GraphicsMode, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	for i := range v.Opcolor {
		if v.Opcolor[i], err = src.ReadBE16(); err != nil {
			return nil, err
		}
	}
	n := hdr
	n.Vmhd = v
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" graphicsMode=%d", n.Vmhd.GraphicsMode) })
	return node, nil
}

// Smhd is the sound media header.
type Smhd struct {
	Balance int16
}

func init() { registerGlobal(TypeSmhd, readSmhd, TypeMinf) }

func readSmhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	bal, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	if err := src.Skip(2); err != nil { // reserved
		return nil, err
	}
	n := hdr
	n.Smhd = &Smhd{Balance: int16(bal)}
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" balance=%d", n.Smhd.Balance) })
	return node, nil
}

// Hmhd is the hint media header.
type Hmhd struct {
	MaxPDUSize, AvgPDUSize       uint16
	MaxBitrate, AvgBitrate       uint32
}

func init() { registerGlobal(TypeHmhd, readHmhd, TypeMinf) }

func readHmhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	h := &Hmhd{}
	var err error
	if h.MaxPDUSize, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if h.AvgPDUSize, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if h.MaxBitrate, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if h.AvgBitrate, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if err := src.Skip(4); err != nil { // reserved
		return nil, err
	}
	n := hdr
	n.Hmhd = h
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" maxBitrate=%d avgBitrate=%d", n.Hmhd.MaxBitrate, n.Hmhd.AvgBitrate)
	})
	return node, nil
}

func init() { registerGlobal(TypeSthd, readEmptyFullbox, TypeMinf) }
func init() { registerGlobal(TypeNmhd, readNmhd, TypeMinf) }

// Nmhd is the null media header: a fullbox with no further fields.
type Nmhd struct{}

func readNmhd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	n := hdr
	n.Nmhd = &Nmhd{}
	node := &n
	root.registerPrint(node, nil)
	return node, nil
}

// readEmptyFullbox handles media headers (sthd) that carry no body fields
// beyond the fullbox version/flags already consumed by the header reader.
func readEmptyFullbox(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	n := hdr
	node := &n
	root.registerPrint(node, nil)
	return node, nil
}
