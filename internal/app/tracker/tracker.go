// Package tracker maintains the debounced "what is the host playing" state
// over the polled control-block array.
package tracker

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/sorane/bgmscope/internal/domain/bgm"
	"github.com/sorane/bgmscope/internal/infra/memsource"
)

// ErrPriorityOutOfRange is returned by SetOverride for a priority outside
// the slot range.
var ErrPriorityOutOfRange = errors.New("override priority out of range")

// SlotInfo reports the raw id fields of one slot, as stored.
type SlotInfo struct {
	Primary   uint16
	Secondary uint16
	Tertiary  uint16
}

// Tracker resolves the active song from the control-block array on every
// Poll and publishes a transition whenever the resolved song changes. It
// also owns the override state: a slot this process wrote into is excluded
// from resolution so the song underneath stays observable.
type Tracker struct {
	mu  sync.Mutex
	src memsource.Source

	prior    bgm.Playing
	current  bgm.Playing
	override bgm.Playing // Song 0 means no active override

	handlers []Handler
}

// New creates a tracker over the given memory source.
func New(src memsource.Source) *Tracker {
	return &Tracker{src: src}
}

// OnTransition registers a transition handler. Handlers are invoked
// synchronously from Poll, in registration order.
func (t *Tracker) OnTransition(fn Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, fn)
}

// Current returns the last resolved (song, priority) pair. Song 0 means
// nothing playing.
func (t *Tracker) Current() bgm.Playing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Override returns the active override pair. Song 0 means no override.
func (t *Tracker) Override() bgm.Playing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.override
}

// Poll runs one resolution pass. An unavailable memory source resolves to
// "nothing playing" rather than failing; transitions are published at most
// once per genuine change.
func (t *Tracker) Poll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := t.resolveLocked()
	if res.Suppressed {
		zlog.Debug().Msgf("tracker: transient glitch at priority %d (song %d), discarding tick",
			t.prior.Priority, t.prior.Song)
		return
	}

	// The song id alone gates the update: priority 0 is a legitimate
	// "nothing playing" value and must not retrigger on its own.
	if res.Song == t.current.Song {
		return
	}

	t.prior = t.current
	t.current = res.Playing

	zlog.Debug().Msgf("tracker: song %d (priority %d) -> song %d (priority %d)",
		t.prior.Song, t.prior.Priority, t.current.Song, t.current.Priority)

	ev := Transition{Prior: t.prior, Current: t.current}
	for _, fn := range t.handlers {
		fn(ev)
	}
}

func (t *Tracker) resolveLocked() bgm.Resolution {
	t.src.Refresh()

	raw, ok := t.src.Snapshot()
	if !ok {
		return bgm.Resolution{}
	}
	view, err := bgm.NewSlots(raw)
	if err != nil {
		zlog.Warn().Msgf("tracker: bad control-block snapshot: %v", err)
		return bgm.Resolution{}
	}

	states := bgm.DecodeStates(view)
	overridePriority := -1
	if t.override.Song != 0 {
		overridePriority = t.override.Priority
	}
	return bgm.Resolve(states[:], t.prior, overridePriority)
}

// SetOverride writes songID into every id field of the targeted slot and
// marks the slot as self-owned for subsequent polls. A songID of 0 clears
// the override. The memory write is best effort: when the source is
// unavailable the write is skipped but the bookkeeping still updates. No
// transition is published here; the next Poll observes the result.
func (t *Tracker) SetOverride(songID uint16, priority int) error {
	if priority < 0 || priority >= bgm.SlotCount {
		return errors.Wrapf(ErrPriorityOutOfRange, "priority %d not in [0,%d]", priority, bgm.SlotCount-1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.src.Refresh()
	if raw, ok := t.src.Snapshot(); ok {
		if view, err := bgm.NewSlots(raw); err == nil {
			slot, _ := view.Slot(priority)
			slot.SetPrimaryID(songID)
			slot.SetSecondaryID(songID)
			slot.SetTertiaryID(songID)
			// Best-effort cleanup; the host may re-derive its own values.
			slot.SetTimerValue(0)
			slot.SetTimerEnabled(false)

			// Writing the whole slot back keeps the padding byte-identical.
			if err := t.src.WriteAt(bgm.SlotOffset(priority), slot); err != nil {
				zlog.Warn().Msgf("tracker: override write to slot %d failed: %v", priority, err)
			}
		}
	} else {
		zlog.Debug().Msgf("tracker: memory unavailable, override write to slot %d skipped", priority)
	}

	t.override = bgm.Playing{Song: songID, Priority: priority}
	zlog.Info().Msgf("tracker: override set: song %d at priority %d", songID, priority)
	return nil
}

// Dump reports the id fields of every slot as currently stored. ok is false
// when the memory source cannot supply a view.
func (t *Tracker) Dump() ([bgm.SlotCount]SlotInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out [bgm.SlotCount]SlotInfo

	t.src.Refresh()
	raw, ok := t.src.Snapshot()
	if !ok {
		return out, false
	}
	view, err := bgm.NewSlots(raw)
	if err != nil {
		return out, false
	}

	for i := range out {
		slot, _ := view.Slot(i)
		out[i] = SlotInfo{
			Primary:   slot.PrimaryID(),
			Secondary: slot.SecondaryID(),
			Tertiary:  slot.TertiaryID(),
		}
	}
	return out, true
}
