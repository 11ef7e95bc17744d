package bmff

import "fmt"

// Stsd is the sample description box: a list of sample entries, each a
// polymorphic variant selected by its own 4CC. Grounded on spec.md §4.6 and
// tetsuo-mp4/iter.go's ReadVisualSampleEntry/ReadAudioSampleEntry preludes.
type Stsd struct{ Entries []*Box }

func init() { registerGlobal(TypeStsd, readStsd, TypeStbl) }

func readStsd(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	if _, err := src.ReadBE32(); err != nil { // entry_count, re-derived from what's actually present
		return nil, err
	}
	n := hdr
	node := &n
	s := &Stsd{}
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Stsd.Entries)) })
	for {
		if src.Tell() >= end || src.Empty() {
			break
		}
		entry, status, err := readOneBox(src, node, root, end)
		if status == headerEOF {
			break
		}
		if err != nil {
			node.Stsd = s
			return node, err
		}
		if entry != nil {
			s.Entries = append(s.Entries, entry)
		}
	}
	node.Stsd = s
	return node, nil
}

// VisualSampleEntry is the 78-byte-prelude sample entry used by avc1 and
// similar video codecs. Field set grounded on
// tetsuo-mp4/iter.go's VisualSampleEntry / ReadVisualSampleEntry.
type VisualSampleEntry struct {
	DataReferenceIndex uint16
	Width, Height      uint16
	HResolution        uint32 // 16.16 fixed point, dpi
	VResolution        uint32
	FrameCount         uint16
	CompressorName     string
	Depth              uint16
}

func init() { registerGlobal(TypeAvc1, readVisualSampleEntry, TypeStsd) }

func readVisualSampleEntry(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	v := &VisualSampleEntry{}
	if err := src.Skip(6); err != nil { // reserved
		return nil, err
	}
	dri, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	v.DataReferenceIndex = dri
	if err := src.Skip(2 + 2 + 12); err != nil { // pre_defined, reserved, pre_defined[3]
		return nil, err
	}
	if v.Width, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if v.Height, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if v.HResolution, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if v.VResolution, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if err := src.Skip(4); err != nil { // reserved
		return nil, err
	}
	if v.FrameCount, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	nameBuf, err := src.ReadBytes(32) // Pascal string, clamp length to 31
	if err != nil {
		return nil, err
	}
	nameLen := int(nameBuf[0])
	if nameLen > 31 {
		nameLen = 31
	}
	v.CompressorName = string(nameBuf[1 : 1+nameLen])
	if v.Depth, err = src.ReadBE16(); err != nil {
		return nil, err
	}
	if err := src.Skip(2); err != nil { // pre_defined = -1
		return nil, err
	}

	n := hdr
	n.Visual = v
	node := &n
	root.registerPrint(node, func(n *Box) string {
		e := n.Visual
		return fmt.Sprintf(" %dx%d compressor=%q", e.Width, e.Height, e.CompressorName)
	})
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

// AudioSampleEntry is the sample entry used by mp4a and similar audio
// codecs. Version 0 has a 28-byte prelude; versions 1/2 append 16/36 extra
// bytes of QuickTime-specific fields ahead of the (shared) child boxes.
type AudioSampleEntry struct {
	EntryVersion       uint16
	DataReferenceIndex uint16
	ChannelCount       uint16
	SampleSize         uint16
	SampleRate         uint32 // 16.16 fixed point
}

func init() { registerGlobal(TypeMp4a, readAudioSampleEntry, TypeStsd) }

func readAudioSampleEntry(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	a := &AudioSampleEntry{}
	if err := src.Skip(6); err != nil { // reserved
		return nil, err
	}
	dri, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	a.DataReferenceIndex = dri
	ver, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	a.EntryVersion = ver
	if err := src.Skip(6); err != nil { // revision(2) + vendor(4)
		return nil, err
	}
	ch, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	a.ChannelCount = ch
	ss, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	a.SampleSize = ss
	if err := src.Skip(2 + 2); err != nil { // compression ID, packet size
		return nil, err
	}
	if a.SampleRate, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if ver == 1 {
		if err := src.Skip(16); err != nil {
			return nil, err
		}
	} else if ver == 2 {
		if err := src.Skip(36); err != nil {
			return nil, err
		}
	}

	n := hdr
	n.Audio = a
	node := &n
	root.registerPrint(node, func(n *Box) string {
		e := n.Audio
		return fmt.Sprintf(" ch=%d sampleSize=%d sampleRate=%d", e.ChannelCount, e.SampleSize, e.SampleRate>>16)
	})
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

// QTTextSampleEntry is the QuickTime "text" sample entry: a 51-byte prelude
// (display flags, justification, background color, default text box,
// scroll delay, hint tracks, font number/face, color) followed by a
// Pascal-string font name.
type QTTextSampleEntry struct {
	DataReferenceIndex uint16
	DisplayFlags       uint32
	FontName           string
}

func init() { registerGlobal(TypeText, readQTTextSampleEntry, TypeStsd) }

func readQTTextSampleEntry(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &QTTextSampleEntry{}
	if err := src.Skip(6); err != nil {
		return nil, err
	}
	dri, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	t.DataReferenceIndex = dri
	if t.DisplayFlags, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if err := src.Skip(4 + 6 + 8 + 8 + 2 + 2 + 1 + 2 + 6); err != nil {
		// textJustification(4), bgColor(6), defaultTextBox(8), reserved(8),
		// fontNumber(2), fontFace(2), reserved(1), reserved(2), foreColor(6):
		// not exposed by this demuxer beyond DataReferenceIndex/FontName.
		return nil, err
	}
	if src.Tell() < end {
		nameLen, err := src.ReadByte()
		if err == nil && src.Tell()+uint64(nameLen) <= end {
			nameBuf, err := src.ReadBytes(uint64(nameLen))
			if err == nil {
				t.FontName = string(nameBuf)
			}
		}
	}
	n := hdr
	n.QTText = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" fontName=%q", n.QTText.FontName) })
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

// TX3GSampleEntry is the 3GPP timed text sample entry.
type TX3GSampleEntry struct {
	DataReferenceIndex uint16
	DisplayFlags       uint32
	DefaultTextColor   uint32
}

func init() { registerGlobal(TypeTx3g, readTX3GSampleEntry, TypeStsd) }

func readTX3GSampleEntry(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	t := &TX3GSampleEntry{}
	if err := src.Skip(6); err != nil {
		return nil, err
	}
	dri, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	t.DataReferenceIndex = dri
	if t.DisplayFlags, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if err := src.Skip(1 + 1 + 4 + 8 + 8); err != nil {
		// horizontal/vertical justification, bgColorRGBA, defaultTextBox, and
		// defaultStyle's startChar/endChar/fontID/face/fontSize
		return nil, err
	}
	if t.DefaultTextColor, err = src.ReadBE32(); err != nil { // defaultStyle textColorRGBA
		return nil, err
	}
	n := hdr
	n.Tx3g = t
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" defaultTextColor=0x%08x", n.Tx3g.DefaultTextColor) })
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

// AvcC is the AVC decoder configuration record.
type AvcC struct {
	ConfigurationVersion uint8
	Profile              uint8
	ProfileCompatibility uint8
	Level                uint8
	MimeCodec            string
	Buffer               []byte
}

func init() { registerGlobal(TypeAvcC, readAvcC, TypeAvc1) }

func readAvcC(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	body, err := src.ReadUpTo(end)
	if err != nil {
		return nil, err
	}
	a := &AvcC{Buffer: body}
	if len(body) >= 4 {
		a.ConfigurationVersion = body[0]
		a.Profile = body[1]
		a.ProfileCompatibility = body[2]
		a.Level = body[3]
		a.MimeCodec = fmt.Sprintf("%02x%02x%02x", a.Profile, a.ProfileCompatibility, a.Level)
	}
	n := hdr
	n.AvcC = a
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" mimeCodec=avc1.%s bufLen=%d", n.AvcC.MimeCodec, len(n.AvcC.Buffer)) })
	return node, nil
}

// Btrt is the MPEG-4 bit rate box.
type Btrt struct{ BufferSizeDB, MaxBitrate, AvgBitrate uint32 }

func init() { registerGlobal(TypeBtrt, readBtrt, TypeAvc1, TypeMp4a) }

func readBtrt(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	b := &Btrt{}
	var err error
	if b.BufferSizeDB, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if b.MaxBitrate, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if b.AvgBitrate, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	n := hdr
	n.Btrt = b
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" maxBitrate=%d avgBitrate=%d", n.Btrt.MaxBitrate, n.Btrt.AvgBitrate) })
	return node, nil
}

// Pasp is the pixel aspect ratio box.
type Pasp struct{ HSpacing, VSpacing uint32 }

func init() { registerGlobal(TypePasp, readPasp, TypeAvc1) }

func readPasp(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	p := &Pasp{}
	var err error
	if p.HSpacing, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if p.VSpacing, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	n := hdr
	n.Pasp = p
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" %d:%d", n.Pasp.HSpacing, n.Pasp.VSpacing) })
	return node, nil
}

// Colr is the colour information box, nclc/nclx variants.
type Colr struct {
	ColorType                                   [4]byte
	ColorPrimaries, TransferCharacteristics      uint16
	MatrixCoefficients                          uint16
	FullRangeFlag                               bool
}

func init() { registerGlobal(TypeColr, readColr, TypeAvc1) }

func readColr(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	c := &Colr{}
	ct, err := src.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(c.ColorType[:], ct)
	if string(ct) == "nclc" || string(ct) == "nclx" {
		if c.ColorPrimaries, err = src.ReadBE16(); err != nil {
			return nil, err
		}
		if c.TransferCharacteristics, err = src.ReadBE16(); err != nil {
			return nil, err
		}
		if c.MatrixCoefficients, err = src.ReadBE16(); err != nil {
			return nil, err
		}
		if string(ct) == "nclx" && src.Tell() < end {
			b, err := src.ReadByte()
			if err == nil {
				c.FullRangeFlag = b&0x80 != 0
			}
		}
	}
	n := hdr
	n.Colr = c
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" type=%s", string(n.Colr.ColorType[:])) })
	return node, nil
}

// Clap is the clean aperture box.
type Clap struct {
	CleanApertureWidthN, CleanApertureWidthD     uint32
	CleanApertureHeightN, CleanApertureHeightD   uint32
	HorizOffN, HorizOffD, VertOffN, VertOffD     uint32
}

func init() { registerGlobal(TypeClap, readClap, TypeAvc1) }

func readClap(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	c := &Clap{}
	fields := []*uint32{
		&c.CleanApertureWidthN, &c.CleanApertureWidthD,
		&c.CleanApertureHeightN, &c.CleanApertureHeightD,
		&c.HorizOffN, &c.HorizOffD, &c.VertOffN, &c.VertOffD,
	}
	for _, f := range fields {
		v, err := src.ReadBE32()
		if err != nil {
			return nil, err
		}
		*f = v
	}
	n := hdr
	n.Clap = c
	node := &n
	root.registerPrint(node, nil)
	return node, nil
}

// Stsl is the sample scale box.
type Stsl struct {
	ConstraintFlag bool
	ScaleMethod    uint8
	DisplayCenterX, DisplayCenterY int16
}

func init() { registerGlobal(TypeStsl, readStsl, TypeAvc1) }

func readStsl(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	s := &Stsl{}
	b, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	s.ConstraintFlag = b&0x01 != 0
	if s.ScaleMethod, err = src.ReadByte(); err != nil {
		return nil, err
	}
	x, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	s.DisplayCenterX = int16(x)
	y, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	s.DisplayCenterY = int16(y)
	n := hdr
	n.Stsl = s
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" scaleMethod=%d", n.Stsl.ScaleMethod) })
	return node, nil
}

// Chan is the QuickTime audio channel layout box.
type Chan struct {
	ChannelLayoutTag uint32
	ChannelBitmap    uint32
}

func init() { registerGlobal(TypeChan, readChan, TypeMp4a) }

func readChan(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	c := &Chan{}
	var err error
	if c.ChannelLayoutTag, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if c.ChannelBitmap, err = src.ReadBE32(); err != nil {
		return nil, err
	}
	if err := src.Skip(4); err != nil { // number_channel_descriptions, assumed 0 here
		return nil, err
	}
	n := hdr
	n.Chan = c
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" layoutTag=0x%08x", n.Chan.ChannelLayoutTag) })
	return node, nil
}

// Ftab is the font table box used by tx3g.
type FtabEntry struct {
	FontID   uint16
	FontName string
}
type Ftab struct{ Entries []FtabEntry }

func init() { registerGlobal(TypeFtab, readFtab, TypeTx3g) }

func readFtab(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	count, err := src.ReadBE16()
	if err != nil {
		return nil, err
	}
	f := &Ftab{}
	for i := uint16(0); i < count && src.Tell() < end; i++ {
		id, err := src.ReadBE16()
		if err != nil {
			return nil, err
		}
		nameLen, err := src.ReadByte()
		if err != nil {
			return nil, err
		}
		name, err := src.ReadBytes(uint64(nameLen))
		if err != nil {
			return nil, err
		}
		f.Entries = append(f.Entries, FtabEntry{FontID: id, FontName: string(name)})
	}
	n := hdr
	n.Ftab = f
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" entries=%d", len(n.Ftab.Entries)) })
	return node, nil
}

// Esds is the ES descriptor box: an MPEG-4 elementary stream descriptor
// tree carrying codec configuration.
type Esds struct {
	Descriptor *Descriptor
	MimeCodec  string
	Buffer     []byte
}

func init() { registerGlobal(TypeEsds, readEsds, TypeMp4a, TypeAvc1) }

func readEsds(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	body, err := src.ReadUpTo(end)
	if err != nil {
		return nil, err
	}
	e := &Esds{Buffer: body}
	e.Descriptor = ParseEsds(body)
	if e.Descriptor != nil {
		e.MimeCodec = e.Descriptor.CodecString()
	}
	n := hdr
	n.Esds = e
	node := &n
	root.registerPrint(node, func(n *Box) string { return fmt.Sprintf(" mimeCodec=mp4a.%s bufLen=%d", n.Esds.MimeCodec, len(n.Esds.Buffer)) })
	return node, nil
}
