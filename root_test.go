package bmff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRoot_MinimalFtypMdat(t *testing.T) {
	data := concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512), []byte("isomiso2"))),
		box(TypeMdat, []byte("payload-bytes")),
	)

	root, err := ReadRoot(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, root.Ftyp)
	assert.Equal(t, [4]byte{'i', 's', 'o', 'm'}, root.Ftyp.Ftyp.MajorBrand)
	require.Len(t, root.Other, 1)
	assert.Equal(t, TypeMdat, root.Other[0].Type)
	assert.Equal(t, []byte("payload-bytes"), root.Other[0].Buffer)
}

func mvhdBody() []byte {
	return concat(
		be32(0), be32(0), be32(1000), be32(0), // ctime, mtime, timescale, duration
		be32(0x00010000),       // preferred rate
		be16(0x0100), be16(0), // preferred volume, reserved(2)
		make([]byte, 8),  // reserved(8)
		make([]byte, 36), // matrix
		be32(0), be32(0), be32(0), be32(0), be32(0), be32(0), // preview/poster/selection/current
		be32(2), // next_track_id
	)
}

func tkhdBody() []byte {
	return concat(
		be32(0), be32(0), be32(1), be32(0), be32(0), // ctime,mtime,trackId,reserved,duration
		make([]byte, 8),                  // reserved
		be16(0), be16(0), be16(0), be16(0), // layer, alt group, volume, reserved
		make([]byte, 36), // matrix
		be32(320<<16), be32(240<<16),
	)
}

func mdhdBody() []byte {
	return concat(be32(0), be32(0), be32(48000), be32(0), be16(0x55c4), be16(0))
}

func hdlrBody(handlerType string) []byte {
	return concat(be32(0), []byte(handlerType), make([]byte, 12), []byte("name\x00"))
}

func buildSingleTrackMovie() []byte {
	stbl := box(TypeStbl, concat(
		fullBox(TypeStsd, 0, 0, be32(0)),
		fullBox(TypeStts, 0, 0, be32(0)),
		fullBox(TypeStsc, 0, 0, be32(0)),
		fullBox(TypeStsz, 0, 0, concat(be32(0), be32(0))),
		fullBox(TypeStco, 0, 0, be32(0)),
	))
	dinf := box(TypeDinf, fullBox(TypeDref, 0, 0, be32(0)))
	minf := box(TypeMinf, concat(
		fullBox(TypeVmhd, 0, 1, concat(be16(0), be16(0), be16(0), be16(0))),
		dinf,
		stbl,
	))
	mdia := box(TypeMdia, concat(
		fullBox(TypeMdhd, 0, 0, mdhdBody()),
		fullBox(TypeHdlr, 0, 0, hdlrBody("vide")),
		minf,
	))
	trak := box(TypeTrak, concat(
		fullBox(TypeTkhd, 0, 3, tkhdBody()),
		mdia,
	))
	moov := box(TypeMoov, concat(
		fullBox(TypeMvhd, 0, 0, mvhdBody()),
		trak,
	))
	return concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512))),
		moov,
		box(TypeMdat, []byte("sample-data")),
	)
}

func TestReadRoot_SingleTrackMovie(t *testing.T) {
	root, err := ReadRoot(bytes.NewReader(buildSingleTrackMovie()))
	require.NoError(t, err)
	require.NotNil(t, root.Moov)
	require.NotNil(t, root.Moov.Mvhd)
	assert.EqualValues(t, 1000, root.Moov.Mvhd.TimeScale)
	assert.EqualValues(t, 2, root.Moov.Mvhd.NextTrackId)

	trak := root.Moov.Child(TypeTrak)
	require.NotNil(t, trak)
	require.NotNil(t, trak.Tkhd)
	assert.EqualValues(t, 1, trak.Tkhd.TrackId)

	mdia := trak.Child(TypeMdia)
	require.NotNil(t, mdia)
	hdlr := mdia.Child(TypeHdlr)
	require.NotNil(t, hdlr)
	assert.Equal(t, "vide", string(hdlr.Hdlr.HandlerType[:]))

	stbl := mdia.Child(TypeMinf).Child(TypeStbl)
	require.NotNil(t, stbl)
	require.NotNil(t, stbl.Child(TypeStsd).Stsd)
	assert.Empty(t, stbl.Child(TypeStsd).Stsd.Entries)
}

func TestReadRoot_MisplacedTkhdUnderMoov(t *testing.T) {
	data := concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512))),
		box(TypeMoov, concat(
			fullBox(TypeMvhd, 0, 0, mvhdBody()),
			fullBox(TypeTkhd, 0, 3, tkhdBody()), // illegal directly under moov
		)),
	)
	root, err := ReadRoot(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, root.Moov)
	assert.Nil(t, root.Moov.Child(TypeTkhd))
	assert.EqualValues(t, 1, root.Stats.Misplaced)
}

func TestReadRoot_EntryCountLieOnStts(t *testing.T) {
	// stts declares 1000 entries but the box only has room for 2; stbl must
	// sit in its legal moov/trak/mdia/minf nesting or it is itself routed
	// to readUnknown before readStts ever runs.
	stts := fullBox(TypeStts, 0, 0, concat(be32(1000), be32(1), be32(10), be32(1), be32(10)))
	stbl := box(TypeStbl, stts)
	minf := box(TypeMinf, stbl)
	mdia := box(TypeMdia, minf)
	trak := box(TypeTrak, mdia)
	moov := box(TypeMoov, trak)

	root, err := ReadRoot(bytes.NewReader(moov))
	require.NoError(t, err)
	require.NotNil(t, root.Moov)
	sttsBox := root.Moov.Child(TypeTrak).Child(TypeMdia).Child(TypeMinf).Child(TypeStbl).Child(TypeStts)
	require.NotNil(t, sttsBox)
	assert.Len(t, sttsBox.Stts.Entries, 2)
	assert.EqualValues(t, 1, root.Stats.ShortReads)
}

func TestReadRoot_TruncatedMvhdIsShortRead(t *testing.T) {
	full := box(TypeMoov, fullBox(TypeMvhd, 0, 0, mvhdBody()))
	truncated := full[:len(full)-20] // cut off inside mvhd's matrix/trailer fields

	root, err := ReadRoot(bytes.NewReader(truncated))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRead)
	assert.NotNil(t, root) // partial tree still returned
}

func TestReadRoot_FragmentMoofTrafTfhdTrun(t *testing.T) {
	trun := fullBox(TypeTrun, 0, TrunSampleDurationPresent|TrunSampleSizePresent,
		concat(be32(2),
			be32(1024), be32(5000),
			be32(1024), be32(6000),
		))
	tfhd := fullBox(TypeTfhd, 0, TfhdDefaultSampleDurationPresent, concat(be32(1), be32(1024)))
	traf := box(TypeTraf, concat(tfhd, trun))
	mfhd := fullBox(TypeMfhd, 0, 0, be32(1))
	moof := box(TypeMoof, concat(mfhd, traf))

	root, err := ReadRoot(bytes.NewReader(moof))
	require.NoError(t, err)
	require.Len(t, root.Moof, 1)
	moofBox := root.Moof[0]
	require.NotNil(t, moofBox.Child(TypeMfhd))
	assert.EqualValues(t, 1, moofBox.Child(TypeMfhd).Mfhd.SequenceNumber)

	trafBox := moofBox.Child(TypeTraf)
	require.NotNil(t, trafBox)
	tfhdBox := trafBox.Child(TypeTfhd)
	require.NotNil(t, tfhdBox)
	assert.EqualValues(t, 1, tfhdBox.Tfhd.TrackId)
	assert.EqualValues(t, 1024, tfhdBox.Tfhd.DefaultSampleDuration)

	trunBox := trafBox.Child(TypeTrun)
	require.NotNil(t, trunBox)
	require.Len(t, trunBox.Trun.Entries, 2)
	assert.EqualValues(t, 5000, trunBox.Trun.Entries[0].SampleSize)
	assert.EqualValues(t, 6000, trunBox.Trun.Entries[1].SampleSize)
}
