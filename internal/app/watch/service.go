// Package watch drives the periodic poll loop over the tracker.
package watch

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/sorane/bgmscope/internal/app/notification"
	"github.com/sorane/bgmscope/internal/app/tracker"
	"github.com/sorane/bgmscope/internal/domain/song"
)

// Service polls the tracker on a fixed interval and bridges its transitions
// into the notification manager.
type Service struct {
	tracker  *tracker.Tracker
	notifier *notification.Manager
	catalog  *song.Catalog
	interval time.Duration
}

// New wires a service. notifier and catalog may be nil. The transition
// handler is registered here, so New must be called before the first Poll.
func New(trk *tracker.Tracker, notifier *notification.Manager, catalog *song.Catalog, interval time.Duration) *Service {
	s := &Service{
		tracker:  trk,
		notifier: notifier,
		catalog:  catalog,
		interval: interval,
	}
	trk.OnTransition(s.onTransition)
	return s
}

// Run polls until ctx is cancelled. The tracker must not be polled from
// anywhere else while Run is active.
func (s *Service) Run(ctx context.Context) {
	zlog.Info().Msgf("watch: polling every %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("watch: stopping")
			return
		case <-ticker.C:
			s.tracker.Poll()
		}
	}
}

func (s *Service) onTransition(tr tracker.Transition) {
	zlog.Info().Msgf("bgm: now playing %s (song %d, priority %d), was %s (song %d, priority %d)",
		s.catalog.Title(tr.Current.Song), tr.Current.Song, tr.Current.Priority,
		s.catalog.Title(tr.Prior.Song), tr.Prior.Song, tr.Prior.Priority)

	if s.notifier != nil {
		s.notifier.Broadcast(tr)
	}
}
