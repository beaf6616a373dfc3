package port_test

import (
	"testing"

	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreezeFailsOnDanglingWriter(t *testing.T) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[bool](r, "FLUSH", 1, 1))

	_, err := port.WriterOf[bool](r, "FLUSH")
	require.NoError(t, err)

	assert.Error(t, r.Freeze(), "a port with no reader must fail Freeze")
}

func TestFreezeFailsOnDanglingReader(t *testing.T) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[bool](r, "FLUSH", 1, 1))

	_, err := port.ReaderOf[bool](r, "FLUSH")
	require.NoError(t, err)

	assert.Error(t, r.Freeze())
}

func TestDuplicateDeclareRejected(t *testing.T) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[bool](r, "FLUSH", 1, 1))
	assert.Error(t, port.Declare[bool](r, "FLUSH", 1, 1))
}

func TestTypeMismatchRejected(t *testing.T) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[uint32](r, "DATA", 1, 1))

	_, err := port.WriterOf[bool](r, "DATA")
	assert.Error(t, err)
}

func TestDeclareAfterFreezeRejected(t *testing.T) {
	r := port.NewRegistry()
	require.NoError(t, port.Declare[bool](r, "FLUSH", 1, 1))
	_, _ = port.WriterOf[bool](r, "FLUSH")
	_, _ = port.ReaderOf[bool](r, "FLUSH")
	require.NoError(t, r.Freeze())

	assert.Error(t, port.Declare[bool](r, "OTHER", 1, 1))
}
