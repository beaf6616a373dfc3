package port_test

import (
	"testing"

	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair[T any](t *testing.T, name string, latency uint64, bandwidth int) (port.WritePort[T], port.ReadPort[T]) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[T](r, name, latency, bandwidth))

	w, err := port.WriterOf[T](r, name)
	require.NoError(t, err)

	rp, err := port.ReaderOf[T](r, name)
	require.NoError(t, err)

	require.NoError(t, r.Freeze())

	return w, rp
}

func TestWriteNotVisibleSameCycle(t *testing.T) {
	w, r := pair[int](t, "DATA", 1, 1)

	require.NoError(t, w.Write(42, 5))

	_, ok := r.Read(5)
	assert.False(t, ok, "a write at cycle c must not be visible at cycle c")

	v, ok := r.Read(6)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestUnreadEntriesPersist(t *testing.T) {
	w, r := pair[int](t, "DATA", 1, 1)

	require.NoError(t, w.Write(1, 0))

	_, ok := r.Read(10)
	require.True(t, ok)

	_, ok = r.Read(11)
	assert.False(t, ok, "queue should be empty after the single entry was consumed")
}

func TestBandwidthExceeded(t *testing.T) {
	w, _ := pair[int](t, "DATA", 1, 1)

	require.NoError(t, w.Write(1, 0))
	assert.Error(t, w.Write(2, 0))
}

func TestFlushDiscardsPending(t *testing.T) {
	w, r := pair[int](t, "DATA", 1, 1)

	require.NoError(t, w.Write(1, 0))
	w.Flush()

	_, ok := r.Read(5)
	assert.False(t, ok)
}

func TestSameValueWrittenTwiceReadsBackIdentically(t *testing.T) {
	w, r := pair[uint32](t, "FETCH_2_DECODE", 1, 1)

	require.NoError(t, w.Write(0xdeadbeef, 0))

	v1, ok := r.Read(1)
	require.True(t, ok)

	require.NoError(t, w.Write(0xdeadbeef, 1))
	v2, ok := r.Read(2)
	require.True(t, ok)

	assert.Equal(t, v1, v2)
}
