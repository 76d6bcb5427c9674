// Package bgm defines the host process's background-music control-block
// layout and the resolution logic that picks the single active song from it.
package bgm

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// The host keeps one control block per priority slot in a contiguous array.
// The slot index is the priority; lower index wins. The layout below mirrors
// the host byte for byte, padding included, since slot i+1 starts right
// after slot i's padding.
const (
	SlotCount = 12
	SlotSize  = 64
	ArraySize = SlotCount * SlotSize

	offPrimary   = 0  // uint16, unreliable: sometimes a song id, sometimes a coded value
	offSecondary = 2  // uint16, best signal for what is actually audible
	offTertiary  = 4  // uint16, retains the last meaningfully-set song
	offTimer     = 8  // float32 countdown
	offTimerOn   = 12 // bool
	offLock      = 13 // bool, keep the song past timer expiry
)

// SentinelSongID is a secondary id the host uses as a placeholder. It is
// never a real song and must not be selected as active.
const SentinelSongID = 9999

// The host is an x86 process.
var hostOrder = binary.LittleEndian

// Slot is a typed view onto one control block inside a borrowed buffer.
// Mutations write straight through to the underlying bytes; the padding
// regions are never interpreted or modified.
type Slot []byte

func (s Slot) PrimaryID() uint16   { return hostOrder.Uint16(s[offPrimary:]) }
func (s Slot) SecondaryID() uint16 { return hostOrder.Uint16(s[offSecondary:]) }
func (s Slot) TertiaryID() uint16  { return hostOrder.Uint16(s[offTertiary:]) }

func (s Slot) SetPrimaryID(v uint16)   { hostOrder.PutUint16(s[offPrimary:], v) }
func (s Slot) SetSecondaryID(v uint16) { hostOrder.PutUint16(s[offSecondary:], v) }
func (s Slot) SetTertiaryID(v uint16)  { hostOrder.PutUint16(s[offTertiary:], v) }

func (s Slot) TimerValue() float32 {
	return math.Float32frombits(hostOrder.Uint32(s[offTimer:]))
}

func (s Slot) SetTimerValue(v float32) {
	hostOrder.PutUint32(s[offTimer:], math.Float32bits(v))
}

func (s Slot) TimerEnabled() bool { return s[offTimerOn] != 0 }

func (s Slot) SetTimerEnabled(v bool) {
	if v {
		s[offTimerOn] = 1
	} else {
		s[offTimerOn] = 0
	}
}

func (s Slot) Locked() bool { return s[offLock] != 0 }

// Slots is a checked view over the full control-block array.
type Slots struct {
	buf []byte
}

// NewSlots wraps buf as a control-block array view. The buffer is borrowed,
// not copied.
func NewSlots(buf []byte) (Slots, error) {
	if len(buf) < ArraySize {
		return Slots{}, errors.Newf("control-block buffer too short: got %d bytes, need %d", len(buf), ArraySize)
	}
	return Slots{buf: buf[:ArraySize]}, nil
}

// Slot returns the view for one priority slot.
func (v Slots) Slot(i int) (Slot, error) {
	if i < 0 || i >= SlotCount {
		return nil, errors.Newf("slot index %d out of range [0,%d]", i, SlotCount-1)
	}
	return Slot(v.buf[i*SlotSize : (i+1)*SlotSize]), nil
}

// SlotOffset returns the byte offset of slot i within the array.
func SlotOffset(i int) int { return i * SlotSize }
