package bmff

// Descriptor is one node of the MPEG-4 descriptor tree carried inside an
// esds box. Grounded on tetsuo-isobmff/descriptor.go's tag-keyed
// decodeDescriptor/decodeESDescriptor/decodeDecoderConfigDescriptor walk,
// chosen over the teacher's own simpler string-building ReadEsdsCodec
// because it models the full tree rather than collapsing straight to a
// codec string.
type Descriptor struct {
	Tag      byte
	OTI      byte // only meaningful on a DecoderConfigDescriptor (tag 0x04)
	Buffer   []byte
	Children []*Descriptor
}

const (
	tagESDescriptor             = 0x03
	tagDecoderConfigDescriptor  = 0x04
	tagDecoderSpecificInfo      = 0x05
	tagSLConfigDescriptor       = 0x06
)

// decodeDescriptor parses one tag-length-value descriptor starting at ptr,
// returning the descriptor and the position just past it, or ptr==-1 on a
// malformed length.
func decodeDescriptor(data []byte, ptr int) (*Descriptor, int) {
	if ptr < 0 || ptr >= len(data) {
		return nil, -1
	}
	tag := data[ptr]
	ptr++
	length, next := readDescriptorLength(data, ptr)
	if next < 0 || next+length > len(data) {
		return nil, -1
	}
	body := data[next : next+length]
	end := next + length

	d := &Descriptor{Tag: tag, Buffer: body}

	switch tag {
	case tagESDescriptor:
		decodeESDescriptor(d, body)
	case tagDecoderConfigDescriptor:
		if len(body) > 0 {
			d.OTI = body[0]
		}
		if len(body) > 13 {
			child, _ := decodeDescriptor(body, 13)
			if child != nil {
				d.Children = append(d.Children, child)
			}
		}
	}
	return d, end
}

// decodeESDescriptor fills in the ES_ID/flags-gated optional fields by
// simply consuming them positionally, then recurses into whatever
// descriptor follows (normally a DecoderConfigDescriptor).
func decodeESDescriptor(d *Descriptor, body []byte) {
	if len(body) < 3 {
		return
	}
	ptr := 2 // ES_ID
	flags := body[ptr]
	ptr++
	if flags&0x80 != 0 { // streamDependenceFlag
		ptr += 2
	}
	if flags&0x40 != 0 { // URL_Flag
		if ptr >= len(body) {
			return
		}
		urlLen := int(body[ptr])
		ptr += 1 + urlLen
	}
	if flags&0x20 != 0 { // OCRstreamFlag
		ptr += 2
	}
	for ptr < len(body) {
		child, next := decodeDescriptor(body, ptr)
		if child == nil {
			break
		}
		d.Children = append(d.Children, child)
		ptr = next
	}
}

// readDescriptorLength reads the MPEG-4 variable-length size field (each
// byte's top bit marks continuation), returning the decoded length and the
// offset just past it.
func readDescriptorLength(data []byte, ptr int) (length, next int) {
	for ptr < len(data) {
		b := data[ptr]
		ptr++
		length = length<<7 | int(b&0x7f)
		if b&0x80 == 0 {
			return length, ptr
		}
	}
	return 0, -1
}

// Find returns the first descendant (or self) with the given tag, depth
// first, or nil.
func (d *Descriptor) Find(tag byte) *Descriptor {
	if d == nil {
		return nil
	}
	if d.Tag == tag {
		return d
	}
	for _, c := range d.Children {
		if f := c.Find(tag); f != nil {
			return f
		}
	}
	return nil
}

// CodecString renders the MIME codec suffix (e.g. "40.2" for AAC-LC) from
// this descriptor tree, expected to be rooted at an ESDescriptor.
func (d *Descriptor) CodecString() string {
	cfg := d.Find(tagDecoderConfigDescriptor)
	if cfg == nil || cfg.OTI == 0 {
		return ""
	}
	s := hexByte(cfg.OTI)
	info := cfg.Find(tagDecoderSpecificInfo)
	if info == nil || len(info.Buffer) == 0 {
		return s
	}
	audioObjectType := (info.Buffer[0] & 0xf8) >> 3
	if audioObjectType == 0 {
		return s
	}
	return s + "." + itoa(int(audioObjectType))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// hexByte formats a byte as lowercase hex without a leading zero for
// single-digit values, matching the teacher's own hexByte in the original
// descriptor.go.
func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	if b < 16 {
		return string(digits[b])
	}
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

// ParseEsds decodes the descriptor tree rooted at an esds box's payload.
func ParseEsds(data []byte) *Descriptor {
	d, _ := decodeDescriptor(data, 0)
	return d
}
