package bgm

// Playing is a resolved (song, priority) pair. Song 0 means nothing playing.
type Playing struct {
	Song     uint16
	Priority int
}

// SlotState is a decoded snapshot of the fields resolution looks at.
type SlotState struct {
	Primary   uint16
	Secondary uint16
	Tertiary  uint16
}

// DecodeStates decodes every slot of a control-block view into its
// resolution-relevant fields.
func DecodeStates(v Slots) [SlotCount]SlotState {
	var out [SlotCount]SlotState
	for i := range out {
		s, _ := v.Slot(i)
		out[i] = SlotState{
			Primary:   s.PrimaryID(),
			Secondary: s.SecondaryID(),
			Tertiary:  s.TertiaryID(),
		}
	}
	return out
}

// Resolution is the outcome of one scan over the slot array.
type Resolution struct {
	Playing

	// Suppressed reports that the scan hit a known transient glitch pattern
	// and the whole tick must be discarded with no state change.
	Suppressed bool
}

// Resolve scans the priority slots in order and picks the single active
// song. prior is the pair resolved before the current one, kept for glitch
// detection; overridePriority is the slot the caller owns via an override
// write (negative when no override is active) and is excluded from the scan
// so that the song underneath the override stays observable.
//
// A slot with a zero primary id is inactive regardless of its other fields.
// A slot whose secondary id briefly drops to zero while its tertiary id
// still holds the previously resolved song is a transient glitch: a
// lower-priority slot takes over for a tick and then reverts, and accepting
// it would publish two bogus transitions. The scan reports Suppressed
// instead, leaving the decision to a later tick if the pattern persists.
func Resolve(slots []SlotState, prior Playing, overridePriority int) Resolution {
	last := 0
	for i, s := range slots {
		last = i
		if i == overridePriority {
			continue
		}
		if s.Primary == 0 {
			continue
		}
		if i == prior.Priority && prior.Song != 0 && s.Secondary == 0 && s.Tertiary == prior.Song {
			return Resolution{Suppressed: true}
		}
		if s.Secondary != 0 && s.Secondary != SentinelSongID {
			return Resolution{Playing: Playing{Song: s.Secondary, Priority: i}}
		}
	}
	return Resolution{Playing: Playing{Song: 0, Priority: last}}
}
