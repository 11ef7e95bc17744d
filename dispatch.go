package bmff

import "github.com/pkg/errors"

// readerFunc decodes one box's body (hdr already carries its header fields)
// and returns the fully populated node to attach to the parent's Children
// (or a Root slot), or (nil, nil) to signal the box was handled as opaque
// and must NOT be attached anywhere but the print-handler list.
//
// Grounded on tetsuo-isobmff/codec.go's codecs map[BoxType]*codec{decode,
// encode, encodingLength} registration pattern, generalized to a
// (parent, child) keyed table per spec.md §4.3.
type readerFunc func(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error)

// parentOverrides holds reader tables keyed by a specific parent type,
// consulted before the global table. No reader registers an override, so
// the table is empty and every box resolves through globalReaders: sample
// entries and wave are gated by their global readers' parent allow-lists,
// and readTref reads tref's children itself.
var parentOverrides = map[BoxType]map[BoxType]readerFunc{}

// globalReaders is the fallback table consulted when no parent override
// applies.
var globalReaders = map[BoxType]readerFunc{}

func registerGlobal(t BoxType, fn readerFunc, legalParents ...BoxType) {
	globalReaders[t] = withParents(fn, legalParents...)
}

func registerOverride(parent, t BoxType, fn readerFunc) {
	m := parentOverrides[parent]
	if m == nil {
		m = map[BoxType]readerFunc{}
		parentOverrides[parent] = m
	}
	m[t] = fn
}

// parentType returns the 4CC of parent, or the zero BoxType when parent is
// nil (a node being read directly under Root).
func parentType(parent *Box) BoxType {
	if parent == nil {
		return BoxType{}
	}
	return parent.Type
}

func parentAllowed(parent *Box, legal []BoxType) bool {
	if len(legal) == 0 {
		return true // no declared restriction: legal anywhere
	}
	pt := parentType(parent)
	for _, t := range legal {
		if t == pt {
			return true
		}
	}
	return false
}

// withParents wraps fn with the allow-list check spec.md §4.3 requires of
// every reader: a box found under a parent it doesn't belong to is not
// fatal, it is rerouted to readUnknown and the mismatch is logged.
func withParents(fn readerFunc, legalParents ...BoxType) readerFunc {
	if len(legalParents) == 0 {
		return fn
	}
	return func(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
		if !parentAllowed(parent, legalParents) {
			root.warnMisplaced(hdr.Type, parentType(parent), hdr.Pos)
			hdr.Manager |= ManagerMisplaced
			return readUnknown(src, hdr, end, parent, root)
		}
		return fn(src, hdr, end, parent, root)
	}
}

// dispatch resolves the reader for childType under parent, returning nil
// when nothing is registered (readOneBox then reads the box with
// readUnknown).
func dispatch(parent *Box, childType BoxType) readerFunc {
	if parent != nil {
		if m, ok := parentOverrides[parent.Type]; ok {
			if fn, ok := m[childType]; ok {
				return fn
			}
		}
	}
	if fn, ok := globalReaders[childType]; ok {
		return fn
	}
	return nil // caller logs "unknown type" and calls readUnknown itself
}

// readOneBox reads a single box header and decodes it via dispatch,
// reconciling declared vs consumed size afterward. It is the shared core of
// both the top-level loop (root.go) and readChildren below.
func readOneBox(src *ByteSource, parent *Box, root *Root, containerEnd uint64) (*Box, headerStatus, error) {
	hdr, status, err := readBoxHeader(src)
	if status != headerOK {
		return nil, status, err
	}

	var childEnd uint64
	if hdr.Size == sizeToEOF {
		childEnd = containerEnd
	} else {
		childEnd = hdr.Pos + hdr.Size
	}

	hdr.Parent = parent
	hdr.Root = root
	src.setBoxType(hdr.Type)

	fn := dispatch(parent, hdr.Type)
	if fn == nil {
		root.warnUnknown(hdr.Type, hdr.Pos)
		hdr.Manager |= ManagerUnknown
		node, err := readUnknown(src, hdr, childEnd, parent, root)
		return node, headerOK, err
	}

	node, err := fn(src, hdr, childEnd, parent, root)
	if err != nil {
		return nil, headerOK, err
	}

	consumed := src.Tell()
	if childEnd != sizeToEOF {
		if consumed < childEnd {
			root.warnExtraBytes(StructuralMismatch{Type: hdr.Type, Declared: childEnd - hdr.Pos, Consumed: consumed - hdr.Pos})
			if err := src.Skip(childEnd - consumed); err != nil {
				return node, headerOK, err
			}
		}
		if node != nil {
			node.Size = consumed - hdr.Pos
		}
	} else if node != nil {
		node.Size = src.Tell() - hdr.Pos
	}

	return node, headerOK, nil
}

// maxNestingDepth bounds container recursion; a file claiming deeper
// nesting than this is presumed hostile rather than legitimately complex.
const maxNestingDepth = 64

// minBoxHeaderSize is the smallest a box header can legally be (a 4-byte
// compact size plus a 4-byte type). A residual shorter than this before
// containerEnd cannot possibly hold another box and is padding, not a box
// this library failed to read.
const minBoxHeaderSize = 8

// readChildren runs the children loop for a container node: repeatedly
// reads and dispatches boxes until fewer than 8 bytes remain (or
// containerEnd is reached), appending recognized children to parent's
// Children slice in document order. Opaque children are never appended;
// they exist only in Root's print-handler list.
func readChildren(src *ByteSource, parent *Box, root *Root, containerEnd uint64) error {
	if depthOf(parent) > maxNestingDepth {
		return errors.Wrapf(ErrMaxDepth, "box %s at offset %d", parent.Type, parent.Pos)
	}
	for {
		if containerEnd != sizeToEOF && src.Tell() >= containerEnd {
			return nil
		}
		if src.Empty() {
			return nil
		}
		if containerEnd != sizeToEOF {
			if residual := containerEnd - src.Tell(); residual < minBoxHeaderSize {
				return skipPadding(src, parent, root, residual)
			}
		}
		node, status, err := readOneBox(src, parent, root, containerEnd)
		if status == headerEOF {
			return nil
		}
		if err != nil {
			return err
		}
		if node != nil {
			parent.Children = append(parent.Children, node)
			attachNamedField(parent, node)
		}
	}
}

// skipPadding consumes a sub-header residual left before containerEnd,
// recording it as a zero-type opaque print entry rather than attempting
// readOneBox on bytes too short to hold even a box header (spec.md §4.4
// step 2).
func skipPadding(src *ByteSource, parent *Box, root *Root, residual uint64) error {
	if residual == 0 {
		return nil
	}
	pos := src.Tell()
	if err := src.Skip(residual); err != nil {
		return err
	}
	root.warnPadding(pos, residual)
	pad := &Box{Pos: pos, Size: residual, Parent: parent, Root: root}
	root.addPrintHandler(pad, depthOf(parent)+1, printOpaque)
	return nil
}

// readUnknown captures a box's remaining bytes as an opaque payload and
// registers a print handler for it, without attaching it to any parent's
// Children — the single ownership exception spec.md §3/§9 calls out.
func readUnknown(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	body, err := src.ReadUpTo(end)
	if err != nil {
		return nil, err
	}
	n := hdr
	n.Buffer = body
	n.Size = src.Tell() - hdr.Pos
	node := &n
	root.addPrintHandler(node, depthOf(parent), printOpaque)
	return nil, nil
}

// depthOf counts n itself plus its ancestors (0 for nil, 1 for a top-level
// box), used to indent print handlers registered
// outside the normal container-print recursion (opaque nodes chiefly).
func depthOf(n *Box) int {
	d := 0
	for p := n; p != nil; p = p.Parent {
		d++
	}
	return d
}
