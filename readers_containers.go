package bmff

// readContainer builds a node's Children via readChildren and registers its
// own print handler ahead of them, giving correct document-order output
// from the single flat print-handler list (spec.md §9). Grounded on the
// shape of every *_read* function in original_source/read.c that does
// nothing but validate, recurse, and return — moov/trak/mdia/minf/dinf/
// edts/udta/mvex/traf/trgr are all this shape.
func readContainer(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	n := hdr
	node := &n
	root.registerPrint(node, nil)
	if err := readChildren(src, node, root, end); err != nil {
		return node, err
	}
	return node, nil
}

func init() {
	registerGlobal(TypeMoov, readContainer)
	registerGlobal(TypeTrak, readContainer, TypeMoov)
	registerGlobal(TypeEdts, readContainer, TypeTrak)
	registerGlobal(TypeMdia, readContainer, TypeTrak)
	registerGlobal(TypeMinf, readContainer, TypeMdia)
	registerGlobal(TypeDinf, readContainer, TypeMinf)
	registerGlobal(TypeStbl, readContainer, TypeMinf)
	registerGlobal(TypeUdta, readContainer, TypeMoov, TypeTrak, TypeMoof)
	registerGlobal(TypeMvex, readContainer, TypeMoov)
	registerGlobal(TypeMoof, readContainer) // top-level
	registerGlobal(TypeTraf, readContainer, TypeMoof)
	registerGlobal(TypeTrgr, readContainer, TypeTrak)
	registerGlobal(TypeMfra, readContainer) // top-level
	registerGlobal(TypeWave, readContainer, TypeMp4a)
}
