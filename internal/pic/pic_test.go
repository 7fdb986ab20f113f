package pic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitMasksEverythingThenUnmasksCascade(t *testing.T) {
	d := NewDevice()
	for i := 0; i < NumIRQ; i++ {
		require.True(t, d.Masked(i))
	}
	d.Init()
	require.True(t, d.Initialized())
	require.False(t, d.Masked(2), "cascade IRQ must be unmasked after Init")
	require.True(t, d.Masked(0))
}

func TestMaskUnmaskRoundTrip(t *testing.T) {
	d := NewDevice()
	d.Init()
	d.Unmask(0)
	require.False(t, d.Masked(0))
	d.Mask(0)
	require.True(t, d.Masked(0))

	// slave-owned IRQ (RTC = 8)
	d.Unmask(8)
	require.False(t, d.Masked(8))
	d.Mask(8)
	require.True(t, d.Masked(8))
}

func TestEOISlaveAlsoAcksMaster(t *testing.T) {
	d := NewDevice()
	d.Init()
	d.EOI(8)
	require.Equal(t, uint8(eoiCmd|slaveIRQ), d.lastMasterEOI)
	require.Equal(t, uint8(eoiCmd|0), d.lastSlaveEOI)
	require.Equal(t, 1, d.EOICount())
}

func TestOutOfRangeIRQIsNoop(t *testing.T) {
	d := NewDevice()
	d.Init()
	d.Mask(16)
	d.Unmask(-1)
	d.EOI(16)
	require.Equal(t, 0, d.EOICount())
}
