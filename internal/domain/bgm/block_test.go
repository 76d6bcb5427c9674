package bgm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlots_BufferLength(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "exact size", size: ArraySize, wantErr: false},
		{name: "oversized buffer is truncated", size: ArraySize + 100, wantErr: false},
		{name: "one byte short", size: ArraySize - 1, wantErr: true},
		{name: "empty buffer", size: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSlots(make([]byte, tt.size))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlots_Slot_Bounds(t *testing.T) {
	view, err := NewSlots(make([]byte, ArraySize))
	require.NoError(t, err)

	for i := 0; i < SlotCount; i++ {
		s, err := view.Slot(i)
		require.NoError(t, err)
		assert.Len(t, []byte(s), SlotSize)
	}

	_, err = view.Slot(-1)
	assert.Error(t, err)
	_, err = view.Slot(SlotCount)
	assert.Error(t, err)
}

func TestSlot_FieldLayout(t *testing.T) {
	buf := make([]byte, ArraySize)
	view, err := NewSlots(buf)
	require.NoError(t, err)

	// Write through the typed view of slot 3 and verify the raw bytes land
	// at the documented offsets with little-endian encoding.
	s, err := view.Slot(3)
	require.NoError(t, err)

	s.SetPrimaryID(0x1234)
	s.SetSecondaryID(0x5678)
	s.SetTertiaryID(0x9abc)
	s.SetTimerValue(1.0)
	s.SetTimerEnabled(true)

	base := 3 * SlotSize
	assert.Equal(t, byte(0x34), buf[base+0])
	assert.Equal(t, byte(0x12), buf[base+1])
	assert.Equal(t, byte(0x78), buf[base+2])
	assert.Equal(t, byte(0x56), buf[base+3])
	assert.Equal(t, byte(0xbc), buf[base+4])
	assert.Equal(t, byte(0x9a), buf[base+5])
	// float32(1.0) = 0x3f800000
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf[base+8:base+12])
	assert.Equal(t, byte(1), buf[base+12])

	// Neighbouring slots stay untouched.
	for i := 0; i < 3*SlotSize; i++ {
		assert.Zero(t, buf[i], "slot 0-2 byte %d modified", i)
	}
	for i := 4 * SlotSize; i < ArraySize; i++ {
		assert.Zero(t, buf[i], "slot 4+ byte %d modified", i)
	}
}

func TestSlot_RoundTrip(t *testing.T) {
	view, err := NewSlots(make([]byte, ArraySize))
	require.NoError(t, err)

	s, err := view.Slot(0)
	require.NoError(t, err)

	s.SetPrimaryID(42)
	s.SetSecondaryID(SentinelSongID)
	s.SetTertiaryID(7)
	s.SetTimerValue(2.5)
	s.SetTimerEnabled(true)

	assert.Equal(t, uint16(42), s.PrimaryID())
	assert.Equal(t, uint16(SentinelSongID), s.SecondaryID())
	assert.Equal(t, uint16(7), s.TertiaryID())
	assert.Equal(t, float32(2.5), s.TimerValue())
	assert.True(t, s.TimerEnabled())
	assert.False(t, s.Locked())

	s.SetTimerEnabled(false)
	assert.False(t, s.TimerEnabled())
}

func TestSlotOffset(t *testing.T) {
	assert.Equal(t, 0, SlotOffset(0))
	assert.Equal(t, SlotSize, SlotOffset(1))
	assert.Equal(t, 11*SlotSize, SlotOffset(11))
}
