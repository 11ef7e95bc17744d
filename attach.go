package bmff

// attachNamedField mirrors a recognized child's own typed payload onto its
// parent's matching named field, realizing the unique-slot container model
// (every container has a concretely-typed field for each of its fixed
// children, not just a Children entry reachable by Child(Type)). First
// occurrence wins, matching attachTopLevel's handling of Root's own unique
// slots (Ftyp/Moov/Mfra): a second occurrence of a box that is supposed to
// be unique under its parent does not clobber the first.
//
// stsd is the one container excluded here: its children are a polymorphic
// list of sample entry variants collected in Stsd.Entries, not a single
// fixed child, so nothing is mirrored onto the stsd node itself.
func attachNamedField(parent, child *Box) {
	if parent == nil || child == nil || parent.Type == TypeStsd {
		return
	}
	switch child.Type {
	case TypeMvhd:
		if parent.Mvhd == nil {
			parent.Mvhd = child.Mvhd
		}
	case TypeTkhd:
		if parent.Tkhd == nil {
			parent.Tkhd = child.Tkhd
		}
	case TypeMdhd:
		if parent.Mdhd == nil {
			parent.Mdhd = child.Mdhd
		}
	case TypeHdlr:
		if parent.Hdlr == nil {
			parent.Hdlr = child.Hdlr
		}
	case TypeElng:
		if parent.Elng == nil {
			parent.Elng = child.Elng
		}
	case TypeVmhd:
		if parent.Vmhd == nil {
			parent.Vmhd = child.Vmhd
		}
	case TypeSmhd:
		if parent.Smhd == nil {
			parent.Smhd = child.Smhd
		}
	case TypeHmhd:
		if parent.Hmhd == nil {
			parent.Hmhd = child.Hmhd
		}
	case TypeNmhd:
		if parent.Nmhd == nil {
			parent.Nmhd = child.Nmhd
		}
	case TypeDref:
		if parent.Dref == nil {
			parent.Dref = child.Dref
		}
	case TypeStsd:
		if parent.Stsd == nil {
			parent.Stsd = child.Stsd
		}
	case TypeStts:
		if parent.Stts == nil {
			parent.Stts = child.Stts
		}
	case TypeCtts:
		if parent.Ctts == nil {
			parent.Ctts = child.Ctts
		}
	case TypeCslg:
		if parent.Cslg == nil {
			parent.Cslg = child.Cslg
		}
	case TypeStsc:
		if parent.Stsc == nil {
			parent.Stsc = child.Stsc
		}
	case TypeStsz:
		if parent.Stsz == nil {
			parent.Stsz = child.Stsz
		}
	case TypeStz2:
		if parent.Stz2 == nil {
			parent.Stz2 = child.Stz2
		}
	case TypeStco:
		if parent.Stco == nil {
			parent.Stco = child.Stco
		}
	case TypeCo64:
		if parent.Co64 == nil {
			parent.Co64 = child.Co64
		}
	case TypeStss:
		if parent.Stss == nil {
			parent.Stss = child.Stss
		}
	case TypeStsh:
		if parent.Stsh == nil {
			parent.Stsh = child.Stsh
		}
	case TypePadb:
		if parent.Padb == nil {
			parent.Padb = child.Padb
		}
	case TypeStdp:
		if parent.Stdp == nil {
			parent.Stdp = child.Stdp
		}
	case TypeSdtp:
		if parent.Sdtp == nil {
			parent.Sdtp = child.Sdtp
		}
	case TypeSbgp:
		if parent.Sbgp == nil {
			parent.Sbgp = child.Sbgp
		}
	case TypeSgpd:
		if parent.Sgpd == nil {
			parent.Sgpd = child.Sgpd
		}
	case TypeSubs:
		if parent.Subs == nil {
			parent.Subs = child.Subs
		}
	case TypeSaiz:
		if parent.Saiz == nil {
			parent.Saiz = child.Saiz
		}
	case TypeSaio:
		if parent.Saio == nil {
			parent.Saio = child.Saio
		}
	case TypeElst:
		if parent.Elst == nil {
			parent.Elst = child.Elst
		}
	case TypeTref:
		if parent.TrackRef == nil {
			parent.TrackRef = child.TrackRef
		}
	case TypeMehd:
		if parent.Mehd == nil {
			parent.Mehd = child.Mehd
		}
	case TypeTrex:
		if parent.Trex == nil {
			parent.Trex = child.Trex
		}
	case TypeLeva:
		if parent.Leva == nil {
			parent.Leva = child.Leva
		}
	case TypeMfhd:
		if parent.Mfhd == nil {
			parent.Mfhd = child.Mfhd
		}
	case TypeTfhd:
		if parent.Tfhd == nil {
			parent.Tfhd = child.Tfhd
		}
	case TypeTfdt:
		if parent.Tfdt == nil {
			parent.Tfdt = child.Tfdt
		}
	case TypeTrun:
		if parent.Trun == nil {
			parent.Trun = child.Trun
		}
	case TypeMfra:
		if parent.Mfra == nil {
			parent.Mfra = child.Mfra
		}
	case TypeTfra:
		if parent.Tfra == nil {
			parent.Tfra = child.Tfra
		}
	case TypeMfro:
		if parent.Mfro == nil {
			parent.Mfro = child.Mfro
		}
	case TypeSidx:
		if parent.Sidx == nil {
			parent.Sidx = child.Sidx
		}
	case TypeEmsg:
		if parent.Emsg == nil {
			parent.Emsg = child.Emsg
		}
	case TypeMeta:
		if parent.Meta == nil {
			parent.Meta = child.Meta
		}
	case TypeAvcC:
		if parent.AvcC == nil {
			parent.AvcC = child.AvcC
		}
	case TypeBtrt:
		if parent.Btrt == nil {
			parent.Btrt = child.Btrt
		}
	case TypePasp:
		if parent.Pasp == nil {
			parent.Pasp = child.Pasp
		}
	case TypeColr:
		if parent.Colr == nil {
			parent.Colr = child.Colr
		}
	case TypeClap:
		if parent.Clap == nil {
			parent.Clap = child.Clap
		}
	case TypeStsl:
		if parent.Stsl == nil {
			parent.Stsl = child.Stsl
		}
	case TypeChan:
		if parent.Chan == nil {
			parent.Chan = child.Chan
		}
	case TypeFtab:
		if parent.Ftab == nil {
			parent.Ftab = child.Ftab
		}
	case TypeEsds:
		if parent.Esds == nil {
			parent.Esds = child.Esds
		}
	}
}
