package bmff

// SampleFlags decomposes the 32-bit sample_flags word used by trex's
// default_sample_flags, tfhd's default_sample_flags, and trun's
// first_sample_flags / per-sample sample_flags column. Layout, MSB first:
//
//	reserved(4) is_leading(2) depends_on(2) is_depended_on(2)
//	has_redundancy(2) padding_value(3) is_non_sync(1) degradation_priority(16)
type SampleFlags struct {
	Reserved            uint8 // preserved for round-trip fidelity; nothing reads it
	IsLeading            uint8
	DependsOn            uint8
	IsDependedOn         uint8
	HasRedundancy        uint8
	PaddingValue         uint8
	IsNonSync            bool
	DegradationPriority  uint16
}

// DecodeSampleFlags unpacks a raw sample_flags word.
func DecodeSampleFlags(v uint32) SampleFlags {
	b0 := byte(v >> 24)
	b1 := byte(v >> 16)
	return SampleFlags{
		Reserved:            (b0 >> 4) & 0x0f,
		IsLeading:           (b0 >> 2) & 0x03,
		DependsOn:           b0 & 0x03,
		IsDependedOn:        (b1 >> 6) & 0x03,
		HasRedundancy:       (b1 >> 4) & 0x03,
		PaddingValue:        (b1 >> 1) & 0x07,
		IsNonSync:           b1&0x01 != 0,
		DegradationPriority: uint16(v & 0xffff),
	}
}

// Encode packs the sub-fields back into a raw sample_flags word.
func (f SampleFlags) Encode() uint32 {
	var b0, b1 byte
	b0 |= (f.Reserved & 0x0f) << 4
	b0 |= (f.IsLeading & 0x03) << 2
	b0 |= f.DependsOn & 0x03
	b1 |= (f.IsDependedOn & 0x03) << 6
	b1 |= (f.HasRedundancy & 0x03) << 4
	b1 |= (f.PaddingValue & 0x07) << 1
	if f.IsNonSync {
		b1 |= 0x01
	}
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(f.DegradationPriority)
}
