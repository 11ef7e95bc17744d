package bmff

import "fmt"

// Ftyp is the file type / segment type box, grounded on
// tetsuo-isobmff/codec.go's Ftyp struct and tetsuo-mp4/iter.go's
// ReadFtyp/FtypInfo.
type Ftyp struct {
	MajorBrand       [4]byte
	MinorVersion     uint32
	CompatibleBrands [][4]byte
}

func init() {
	registerGlobal(TypeFtyp, readFtyp)
	registerGlobal(TypeStyp, readFtyp) // styp shares ftyp's exact layout
}

func readFtyp(src *ByteSource, hdr Box, end uint64, parent *Box, root *Root) (*Box, error) {
	f := &Ftyp{}
	brand, err := src.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(f.MajorBrand[:], brand)

	f.MinorVersion, err = src.ReadBE32()
	if err != nil {
		return nil, err
	}

	for src.Tell()+4 <= end {
		b, err := src.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		var brand [4]byte
		copy(brand[:], b)
		f.CompatibleBrands = append(f.CompatibleBrands, brand)
	}

	n := hdr
	n.Ftyp = f
	node := &n
	root.registerPrint(node, func(n *Box) string {
		return fmt.Sprintf(" brand=%s minorVersion=%d compatible=%d", string(n.Ftyp.MajorBrand[:]), n.Ftyp.MinorVersion, len(n.Ftyp.CompatibleBrands))
	})
	return node, nil
}
