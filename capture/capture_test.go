package capture

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeaderLayout is invariant 9 from spec.md §8: bytes 0-3 = "DBXC",
// byte 4 = 1.
func TestHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out := buf.Bytes()
	assert.Equal(t, []byte("DBXC"), out[0:4])
	assert.Equal(t, byte(1), out[4])
}

func TestRoundTripRecords(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	records := []Record{
		{TMs: 0, Side: SideL, Layer: LayerBearer, Event: EventTX, Data: []byte{1, 2, 3}},
		{TMs: 20, Side: SideR, Layer: LayerByteLink, Event: EventRX, Data: nil},
		{TMs: 40, Side: SideL, Layer: LayerBearer, Event: EventDrop, Data: []byte{9}},
	}
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}

	rd, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, byte(1), rd.Version)

	for _, want := range records {
		got, err := rd.Next()
		require.NoError(t, err)
		assert.Equal(t, want.TMs, got.TMs)
		assert.Equal(t, want.Side, got.Side)
		assert.Equal(t, want.Layer, got.Layer)
		assert.Equal(t, want.Event, got.Event)
		assert.Equal(t, want.Data, got.Data)
	}
	_, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderRejectsBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("NOPE1")))
	assert.ErrorIs(t, err, ErrBadMagic)
}
