package bmff

import "github.com/rs/zerolog"

// ManagerFlags records how a node came to be in the tree, mirroring the
// bitset L-SMASH keeps on every isom_box_t (see original_source/read.c,
// isom_basebox_common_copy). Only two bits are meaningful here: whether the
// node's type was never recognized by any reader, and whether the node was
// a legally-typed box found under the wrong parent.
type ManagerFlags uint8

const (
	// ManagerUnknown marks a node whose 4CC matched no reader at all.
	ManagerUnknown ManagerFlags = 1 << iota
	// ManagerMisplaced marks a node whose 4CC is known but appeared under
	// a parent that does not allow it; it was read by the Unknown reader.
	ManagerMisplaced
)

// FullBox holds the version and flags common to every ISO fullbox.
type FullBox struct {
	Version uint8
	Flags   uint32
}

// Box is a single node in the materialized tree. Every box, recognized or
// not, is represented by one Box value. A typed reader populates the payload
// field chosen by Type, and attachNamedField also mirrors each recognized
// child's payload onto the same field of its parent (first occurrence
// wins), so a container carries its children's payloads too. Opaque and
// unknown boxes leave all of them nil and carry their undecoded bytes in
// Buffer instead.
//
// Parent and Root are non-owning back-references: Go's garbage collector,
// not manual refcounting, reclaims a subtree once nothing else holds it.
type Box struct {
	Type     BoxType
	UserType [16]byte // only meaningful when Type == TypeUUID

	Pos  uint64 // offset of the box header from the start of the stream
	Size uint64 // total size including header, rewritten to consumed bytes on mismatch

	HasFullBox bool
	FullBox

	Manager ManagerFlags

	Parent *Box
	Root   *Root

	// Children holds this node's recognized children in document order.
	// Only populated for container types; leaf boxes leave it nil.
	Children []*Box

	// Buffer holds undecoded payload bytes: the raw body of mdat/free/skip,
	// or the raw body (header excluded) of an opaque/unknown node.
	Buffer []byte

	// Typed payloads, one per concrete box family.
	Ftyp *Ftyp
	Mvhd *Mvhd
	Tkhd *Tkhd
	Mdhd *Mdhd
	Hdlr *Hdlr
	Elng *Elng
	Vmhd *Vmhd
	Smhd *Smhd
	Hmhd *Hmhd
	Nmhd *Nmhd

	Dref *Dref
	Stsd *Stsd
	Stts *Stts
	Ctts *Ctts
	Cslg *Cslg
	Stsc *Stsc
	Stsz *Stsz
	Stz2 *Stz2
	Stco *Stco
	Co64 *Co64
	Stss *Stss
	Stsh *Stsh
	Padb *Padb
	Stdp *Stdp
	Sdtp *Sdtp
	Sbgp *Sbgp
	Sgpd *Sgpd
	Subs *Subs
	Saiz *Saiz
	Saio *Saio
	Elst *Elst

	TrackRef *TrackReference // tref child, keyed by its own 4CC as reference type

	Mehd *Mehd
	Trex *Trex
	Leva *Leva

	Mfhd *Mfhd
	Tfhd *Tfhd
	Tfdt *Tfdt
	Trun *Trun

	Mfra *Box
	Tfra *Tfra
	Mfro *Mfro

	Sidx *Sidx
	Emsg *Emsg

	Meta *Meta

	Visual *VisualSampleEntry
	Audio  *AudioSampleEntry
	QTText *QTTextSampleEntry
	Tx3g   *TX3GSampleEntry

	AvcC *AvcC
	Btrt *Btrt
	Pasp *Pasp
	Colr *Colr
	Clap *Clap
	Stsl *Stsl
	Chan *Chan
	Ftab *Ftab
	Esds *Esds
}

// ChildList returns this node's children of the given type, in document
// order. It never allocates when there are no matches.
func (b *Box) ChildList(t BoxType) []*Box {
	var out []*Box
	for _, c := range b.Children {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child of the given type, or nil.
func (b *Box) Child(t BoxType) *Box {
	for _, c := range b.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// PrintHandler is one entry in Root's document-order print list: a node
// together with the indent level it was discovered at and the closure that
// knows how to format it. Opaque/unknown nodes are the one kind of node
// reachable ONLY through this list; readUnknown never links them into a
// parent's Children.
type PrintHandler struct {
	Node   *Box
	Indent int
	Print  func(w PrintWriter, n *Box, indent int)
}

// PrintWriter is the minimal sink a PrintHandler writes formatted lines to.
// cmd/mp4dump supplies one backed by stdout; NewPrintWriter wraps any
// io.Writer as one.
type PrintWriter interface {
	Printf(format string, args ...any)
}

// Root is the synthetic container returned by ReadRoot. It owns the unique
// top-level boxes, the ordered list of movie fragments, and the print
// handler list threaded through the whole parse.
type Root struct {
	Ftyp *Box
	Moov *Box
	Mfra *Box
	Moof []*Box // ordered list of fragment boxes, document order

	// Other holds any other recognized top-level box (free, skip, styp,
	// sidx, emsg, mdat) in document order. Opaque/unknown nodes are not
	// kept here; they appear only in PrintHandlers.
	Other []*Box

	PrintHandlers []PrintHandler

	Stats Stats

	logger       *zerolog.Logger
	dumpDisabled bool
	compatCheck  CompatibilityCheck
}

// Logger returns the configured logger, defaulting to a no-op one so every
// call site can log unconditionally.
func (r *Root) Logger() *zerolog.Logger {
	if r.logger == nil {
		nop := zerolog.Nop()
		r.logger = &nop
	}
	return r.logger
}

func newRoot() *Root {
	return &Root{}
}

// addPrintHandler appends a node to the print list unless dump output was
// disabled via WithDump(false), in which case the slice is never grown.
func (r *Root) addPrintHandler(n *Box, indent int, fn func(PrintWriter, *Box, int)) {
	if r.dumpDisabled {
		return
	}
	r.PrintHandlers = append(r.PrintHandlers, PrintHandler{Node: n, Indent: indent, Print: fn})
}
