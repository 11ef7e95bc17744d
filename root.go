package bmff

import (
	"io"

	"github.com/rs/zerolog"
)

// RootOption configures a ReadRoot call.
type RootOption func(*Root)

// WithLogger attaches a structured logger; every non-fatal condition in the
// error taxonomy (spec.md §7) is logged through it in addition to bumping
// Root.Stats. Passing nil is equivalent to not calling WithLogger at all.
func WithLogger(l *zerolog.Logger) RootOption {
	return func(r *Root) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDump controls whether print handlers are recorded at all. Disabling
// it (the default is enabled) saves the allocation entirely for callers
// that only want the materialized tree, not a dump.
func WithDump(enabled bool) RootOption {
	return func(r *Root) { r.dumpDisabled = !enabled }
}

// CompatibilityCheck inspects a fully parsed tree and returns an error if
// it rejects it. spec.md §7 treats semantic compatibility checking as an
// external collaborator; ReadRoot exposes it as an injectable hook rather
// than hardwiring one, since this component does not define what
// "compatible" means for any particular caller.
type CompatibilityCheck func(*Root) error

// WithCompatibilityCheck runs check after a successful parse; its error, if
// any, becomes ReadRoot's returned error.
func WithCompatibilityCheck(check CompatibilityCheck) RootOption {
	return func(r *Root) { r.compatCheck = check }
}

// ReadRoot parses r as an ISOBMFF/QuickTime byte stream, returning the
// materialized tree. On a fatal error (ErrShortRead/ErrStream) the Root
// built so far is still returned alongside the error, holding the top-level
// boxes completed before the failure; the top-level box that was being read
// when it failed, and everything under it, is not attached.
func ReadRoot(r io.Reader, opts ...RootOption) (*Root, error) {
	root := newRoot()
	for _, opt := range opts {
		opt(root)
	}

	src := NewByteSource(r)

	for {
		if src.Empty() {
			break
		}
		node, status, err := readOneBox(src, nil, root, sizeToEOF)
		if status == headerEOF {
			break
		}
		if err != nil {
			return root, err
		}
		attachTopLevel(root, node)
	}

	if root.compatCheck != nil {
		if err := root.compatCheck(root); err != nil {
			return root, err
		}
	}

	return root, nil
}

// attachTopLevel places a freshly decoded top-level box into Root's unique
// slots (ftyp, moov, mfra), the ordered moof list, or the catch-all Other
// slice. nil node (opaque) has already been handled by readOneBox/readUnknown
// and is skipped here.
//
// ftyp, moov, and mfra are each supposed to occur at most once at the top
// level; a second occurrence does not overwrite the first (spec.md §3/§8:
// first occurrence wins, duplicates captured as opaque). The duplicate
// still gets a print-handler entry so it is visible in a dump, it just
// never becomes the thing Root.Ftyp/.Moov/.Mfra points to.
func attachTopLevel(root *Root, node *Box) {
	if node == nil {
		return
	}
	switch node.Type {
	case TypeFtyp:
		if root.Ftyp == nil {
			root.Ftyp = node
		} else {
			root.warnDuplicate(node.Type, node.Pos)
			root.addPrintHandler(node, 0, printOpaque)
		}
	case TypeMoov:
		if root.Moov == nil {
			root.Moov = node
		} else {
			root.warnDuplicate(node.Type, node.Pos)
			root.addPrintHandler(node, 0, printOpaque)
		}
	case TypeMfra:
		if root.Mfra == nil {
			root.Mfra = node
		} else {
			root.warnDuplicate(node.Type, node.Pos)
			root.addPrintHandler(node, 0, printOpaque)
		}
	case TypeMoof:
		root.Moof = append(root.Moof, node)
	default:
		root.Other = append(root.Other, node)
	}
}
