package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutOp(OpNodeGetFromDEF)
	w.PutUint8(7)
	w.PutBool(true)
	w.PutUint16(65535)
	w.PutInt32(-42)
	w.PutUint32(4000000000)
	w.PutFloat64(-1.5)
	w.PutString("ROBOT.BODY")
	w.PutString("")

	r := NewReader(w.Bytes())
	assert.Equal(t, OpNodeGetFromDEF, r.Op())
	assert.Equal(t, uint8(7), r.Uint8())
	assert.True(t, r.Bool())
	assert.Equal(t, uint16(65535), r.Uint16())
	assert.Equal(t, int32(-42), r.Int32())
	assert.Equal(t, uint32(4000000000), r.Uint32())
	assert.Equal(t, -1.5, r.Float64())
	assert.Equal(t, "ROBOT.BODY", r.String())
	assert.Equal(t, "", r.String())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderShortBufferIsSticky(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_ = r.Int32()
	require.ErrorIs(t, r.Err(), ErrShortBuffer)

	// Every subsequent read keeps returning zero values.
	assert.Equal(t, uint8(0), r.Uint8())
	assert.Equal(t, "", r.String())
	require.ErrorIs(t, r.Err(), ErrShortBuffer)
}

func TestReaderStringMissingNUL(t *testing.T) {
	w := NewWriter()
	w.PutUint32(3)
	w.PutUint8('a')
	w.PutUint8('b')
	w.PutUint8('c') // should have been NUL

	r := NewReader(w.Bytes())
	assert.Equal(t, "", r.String())
	require.ErrorIs(t, r.Err(), ErrBadString)
}

func TestReaderUnread(t *testing.T) {
	w := NewWriter()
	w.PutOp(OpMovieStatus)
	w.PutUint8(3)

	r := NewReader(w.Bytes())
	op := r.Op()
	require.Equal(t, OpMovieStatus, op)
	r.Unread(1)
	assert.Equal(t, OpMovieStatus, r.Op())
	assert.Equal(t, uint8(3), r.Uint8())
	require.NoError(t, r.Err())
}

func TestFloatBitPatternPreserved(t *testing.T) {
	values := []float64{0, math.Copysign(0, -1), math.Pi, math.MaxFloat64, math.Inf(1), math.NaN()}
	w := NewWriter()
	for _, v := range values {
		w.PutFloat64(v)
	}
	r := NewReader(w.Bytes())
	for _, v := range values {
		got := r.Float64()
		assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}
	require.NoError(t, r.Err())
}
