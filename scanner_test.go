package bmff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_TopLevelOnlyNoBodyDecode(t *testing.T) {
	data := concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512))),
		box(TypeMoov, []byte("not-really-parsed-by-the-scanner")),
		box(TypeMdat, bytes.Repeat([]byte{0xAB}, 32)),
	)

	sc := NewScanner(bytes.NewReader(data))
	var entries []ScanEntry
	for sc.Next() {
		entries = append(entries, sc.Entry())
	}
	require.NoError(t, sc.Err())
	require.Len(t, entries, 3)
	assert.Equal(t, TypeFtyp, entries[0].Type)
	assert.Equal(t, TypeMoov, entries[1].Type)
	assert.Equal(t, TypeMdat, entries[2].Type)
	assert.EqualValues(t, 32, entries[2].DataSize())
}

func TestScanner_ReadBodySelectively(t *testing.T) {
	data := concat(
		box(TypeFtyp, concat([]byte("isom"), be32(512))),
		box(TypeMdat, []byte("mdat-payload")),
	)
	src := bytes.NewReader(data)
	sc := NewScanner(src)

	require.True(t, sc.Next())
	require.Equal(t, TypeFtyp, sc.Entry().Type)
	require.True(t, sc.Next())
	require.Equal(t, TypeMdat, sc.Entry().Type)

	buf := make([]byte, sc.Entry().DataSize())
	require.NoError(t, sc.ReadBody(buf))
	assert.Equal(t, "mdat-payload", string(buf))

	// position after ReadBody must be unaffected: no more top-level boxes.
	assert.False(t, sc.Next())
	assert.NoError(t, sc.Err())
}
