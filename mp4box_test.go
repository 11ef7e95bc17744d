package bmff

import "encoding/binary"

// box builds a raw compact-size box: 4-byte size, 4-byte type, body.
func box(t BoxType, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(8+len(body)))
	copy(out[4:8], t[:])
	copy(out[8:], body)
	return out
}

// fullBox builds a raw fullbox: size, type, version+flags, body.
func fullBox(t BoxType, version uint8, flags uint32, body []byte) []byte {
	vf := make([]byte, 4)
	vf[0] = version
	vf[1] = byte(flags >> 16)
	vf[2] = byte(flags >> 8)
	vf[3] = byte(flags)
	return box(t, append(vf, body...))
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
