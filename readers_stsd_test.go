package bmff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAvc1(children []byte) []byte {
	body := concat(
		make([]byte, 6), be16(1),
		make([]byte, 2+2+12),
		be16(320), be16(240),
		be32(0x00480000), be32(0x00480000),
		make([]byte, 4),
		be16(1),
		append([]byte{0}, make([]byte, 31)...),
		be16(24),
		be16(0xffff),
		children,
	)
	return box(TypeAvc1, body)
}

func buildMp4a(children []byte) []byte {
	body := concat(
		make([]byte, 6), be16(1), // reserved, data_reference_index
		be16(0),            // entry version 0
		make([]byte, 6),    // revision + vendor
		be16(2),            // channel count
		be16(16),           // sample size
		make([]byte, 4),    // compression id, packet size
		be32(44100<<16),    // sample rate
		children,
	)
	return box(TypeMp4a, body)
}

func wrapInStsd(entries []byte) []byte {
	stsd := fullBox(TypeStsd, 0, 0, concat(be32(1), entries))
	return wrapInStbl(stsd)
}

func TestReadVisualSampleEntry_ExtensionBoxesAttachToParent(t *testing.T) {
	avcC := box(TypeAvcC, []byte{1, 0x64, 0x00, 0x1f, 0xff})
	btrt := box(TypeBtrt, concat(be32(0), be32(500000), be32(400000)))
	pasp := box(TypePasp, concat(be32(1), be32(1)))
	avc1 := buildAvc1(concat(avcC, btrt, pasp))

	root, err := ReadRoot(bytes.NewReader(wrapInStsd(avc1)))
	require.NoError(t, err)
	stsdNode := stblOf(root).Child(TypeStsd)
	require.NotNil(t, stsdNode)
	require.Len(t, stsdNode.Stsd.Entries, 1)

	avc1Node := stsdNode.Stsd.Entries[0]
	require.NotNil(t, avc1Node.Visual)
	assert.EqualValues(t, 320, avc1Node.Visual.Width)

	require.NotNil(t, avc1Node.AvcC)
	assert.Equal(t, "64001f", avc1Node.AvcC.MimeCodec)
	require.NotNil(t, avc1Node.Btrt)
	assert.EqualValues(t, 500000, avc1Node.Btrt.MaxBitrate)
	require.NotNil(t, avc1Node.Pasp)
	assert.EqualValues(t, 1, avc1Node.Pasp.HSpacing)
}

func TestReadAudioSampleEntry_ChanAttachesToParent(t *testing.T) {
	chanBox := box(TypeChan, concat(be32(0x00640000), be32(0), be32(0)))
	mp4a := buildMp4a(chanBox)

	root, err := ReadRoot(bytes.NewReader(wrapInStsd(mp4a)))
	require.NoError(t, err)
	stsdNode := stblOf(root).Child(TypeStsd)
	require.Len(t, stsdNode.Stsd.Entries, 1)

	mp4aNode := stsdNode.Stsd.Entries[0]
	require.NotNil(t, mp4aNode.Audio)
	assert.EqualValues(t, 2, mp4aNode.Audio.ChannelCount)
	require.NotNil(t, mp4aNode.Chan)
	assert.EqualValues(t, 0x00640000, mp4aNode.Chan.ChannelLayoutTag)
}

func TestReadStsd_MultipleEntriesDoNotAttachToStsdItself(t *testing.T) {
	avc1a := buildAvc1(nil)
	avc1b := buildAvc1(nil)
	stsd := fullBox(TypeStsd, 0, 0, concat(be32(2), avc1a, avc1b))

	root, err := ReadRoot(bytes.NewReader(wrapInStbl(stsd)))
	require.NoError(t, err)
	stsdNode := stblOf(root).Child(TypeStsd)
	require.NotNil(t, stsdNode)
	require.Len(t, stsdNode.Stsd.Entries, 2)
	// attachNamedField explicitly skips parent.Type == TypeStsd: nothing
	// about either sample entry variant is mirrored onto the stsd node.
	assert.Nil(t, stsdNode.Visual)
}
