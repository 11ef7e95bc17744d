package bmff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTraf_NamedFieldsAttachToParent(t *testing.T) {
	tfhd := fullBox(TypeTfhd, 0, TfhdDefaultSampleDurationPresent, concat(be32(7), be32(512)))
	tfdt := fullBox(TypeTfdt, 1, 0, be64(90000))
	trun := fullBox(TypeTrun, 0, TrunSampleSizePresent, concat(be32(1), be32(999)))
	traf := box(TypeTraf, concat(tfhd, tfdt, trun))
	mfhd := fullBox(TypeMfhd, 0, 0, be32(3))
	moof := box(TypeMoof, concat(mfhd, traf))

	root, err := ReadRoot(bytes.NewReader(moof))
	require.NoError(t, err)
	require.Len(t, root.Moof, 1)
	trafNode := root.Moof[0].Child(TypeTraf)
	require.NotNil(t, trafNode)

	require.NotNil(t, trafNode.Tfhd)
	assert.EqualValues(t, 7, trafNode.Tfhd.TrackId)
	require.NotNil(t, trafNode.Tfdt)
	assert.EqualValues(t, 90000, trafNode.Tfdt.BaseMediaDecodeTime)
	require.NotNil(t, trafNode.Trun)
	require.Len(t, trafNode.Trun.Entries, 1)
	assert.EqualValues(t, 999, trafNode.Trun.Entries[0].SampleSize)
}

func TestReadMvex_DuplicateTrexFirstWins(t *testing.T) {
	first := fullBox(TypeTrex, 0, 0, concat(be32(1), be32(1), be32(1000), be32(0), be32(0)))
	second := fullBox(TypeTrex, 0, 0, concat(be32(2), be32(1), be32(2000), be32(0), be32(0)))
	mvex := box(TypeMvex, concat(first, second))
	moov := box(TypeMoov, mvex)

	root, err := ReadRoot(bytes.NewReader(moov))
	require.NoError(t, err)
	mvexNode := root.Moov.Child(TypeMvex)
	require.NotNil(t, mvexNode)
	require.NotNil(t, mvexNode.Trex)
	assert.EqualValues(t, 1, mvexNode.Trex.TrackId)
	assert.EqualValues(t, 1000, mvexNode.Trex.DefaultSampleDuration)

	require.Len(t, mvexNode.ChildList(TypeTrex), 2)
	assert.EqualValues(t, 2, mvexNode.ChildList(TypeTrex)[1].Trex.TrackId)
}

func TestReadRoot_DuplicateMoovFirstWinsAsOpaque(t *testing.T) {
	firstMvhd := mvhdBody()
	secondMvhd := concat(
		be32(0), be32(0), be32(48000), be32(0), // different timescale
		be32(0x00010000), be16(0x0100), be16(0),
		make([]byte, 8), make([]byte, 36),
		be32(0), be32(0), be32(0), be32(0), be32(0), be32(0),
		be32(7),
	)
	first := box(TypeMoov, fullBox(TypeMvhd, 0, 0, firstMvhd))
	second := box(TypeMoov, fullBox(TypeMvhd, 0, 0, secondMvhd))
	data := concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512))),
		first,
		second,
	)

	root, err := ReadRoot(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, root.Moov)
	require.NotNil(t, root.Moov.Mvhd)
	assert.EqualValues(t, 1000, root.Moov.Mvhd.TimeScale)
	assert.EqualValues(t, 2, root.Moov.Mvhd.NextTrackId)
	assert.EqualValues(t, 1, root.Stats.Duplicate)
}

func be64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
	return b
}

func BenchmarkReadRoot(b *testing.B) {
	data := buildSingleTrackMovie()
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		if _, err := ReadRoot(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
