package tracker

import "github.com/sorane/bgmscope/internal/domain/bgm"

// Transition is one published song change. Prior is the pair that was
// current before the change.
type Transition struct {
	Prior   bgm.Playing
	Current bgm.Playing
}

// Handler receives a transition synchronously from Poll. Handlers run in
// registration order and must not call back into the Tracker.
type Handler func(Transition)
