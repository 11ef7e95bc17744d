package bmff

// Stats counts the non-fatal conditions encountered during a parse, mirroring
// the ReaderStats pattern bgpfix's MRT reader keeps alongside its embedded
// *zerolog.Logger (one counter per warning category, bumped at the same
// call site that logs it).
type Stats struct {
	ExtraBytes  uint64 // StructuralMismatch: declared size != consumed size
	Misplaced   uint64 // a legally-typed box found under a parent that disallows it
	UnknownType uint64 // a 4CC matching no reader at all
	ShortReads  uint64 // non-fatal truncation recovered from (e.g. a short table)
	Padding     uint64 // sub-header residual before a container's end, skipped as padding
	Duplicate   uint64 // a second occurrence of a box that must be unique under its parent
}

// warnExtraBytes logs and counts a StructuralMismatch; readOneBox, its
// caller, rewrites the node's Size to the consumed byte count.
func (r *Root) warnExtraBytes(m StructuralMismatch) {
	r.Stats.ExtraBytes++
	r.Logger().Warn().
		Str("box", m.Type.String()).
		Uint64("declared", m.Declared).
		Uint64("consumed", m.Consumed).
		Msg("box has extra bytes")
}

func (r *Root) warnMisplaced(child, parent BoxType, pos uint64) {
	r.Stats.Misplaced++
	r.Logger().Warn().
		Str("box", child.String()).
		Str("parent", parent.String()).
		Uint64("offset", pos).
		Msg("box found under disallowed parent, reading as opaque")
}

func (r *Root) warnUnknown(t BoxType, pos uint64) {
	r.Stats.UnknownType++
	r.Logger().Warn().
		Str("box", t.String()).
		Uint64("offset", pos).
		Msg("unrecognized box type")
}

func (r *Root) warnShortRead(t BoxType, pos uint64, err error) {
	r.Stats.ShortReads++
	r.Logger().Warn().
		Str("box", t.String()).
		Uint64("offset", pos).
		Err(err).
		Msg("short read recovered, truncating entries")
}

func (r *Root) warnPadding(pos, size uint64) {
	r.Stats.Padding++
	r.Logger().Warn().
		Uint64("offset", pos).
		Uint64("size", size).
		Msg("sub-header residual before container end, treating as padding")
}

func (r *Root) warnDuplicate(t BoxType, pos uint64) {
	r.Stats.Duplicate++
	r.Logger().Warn().
		Str("box", t.String()).
		Uint64("offset", pos).
		Msg("duplicate unique-slot box, keeping first occurrence, reading as opaque")
}
