// Package ws serves the song transition feed to presentation clients over
// websocket.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/sorane/bgmscope/internal/app/notification"
	"github.com/sorane/bgmscope/internal/domain/song"
)

const writeTimeout = 2 * time.Second

// frame is the JSON payload written for one transition.
type frame struct {
	SequenceNo    uint64 `json:"sequence_no"`
	Song          uint16 `json:"song"`
	Priority      int    `json:"priority"`
	Title         string `json:"title"`
	PriorSong     uint16 `json:"prior_song"`
	PriorPriority int    `json:"prior_priority"`
	PriorTitle    string `json:"prior_title"`
}

// Server exposes the notification feed at /events.
type Server struct {
	notifier *notification.Manager
	catalog  *song.Catalog
	upgrader websocket.Upgrader
}

// NewServer creates a feed server. catalog may be nil.
func NewServer(notifier *notification.Manager, catalog *song.Catalog) *Server {
	return &Server{
		notifier: notifier,
		catalog:  catalog,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 2 * time.Second,
			// The feed is read-only and carries no credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler for the feed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// ListenAndServe serves the feed on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zlog.Info().Msgf("ws: event feed listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Debug().Msgf("ws: upgrade failed: %v", err)
		return
	}

	stream := &clientStream{conn: conn, catalog: s.catalog}
	id := s.notifier.Subscribe(stream)
	zlog.Info().Msgf("ws: client %s connected from %s", id, r.RemoteAddr)

	// The feed is one-way; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.notifier.Unsubscribe(id)
	_ = conn.Close()
	zlog.Info().Msgf("ws: client %s disconnected", id)
}

// clientStream adapts one websocket connection to notification.Stream.
type clientStream struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	catalog *song.Catalog
}

func (c *clientStream) Send(ev notification.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tr := ev.Transition
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(frame{
		SequenceNo:    ev.SequenceNo,
		Song:          tr.Current.Song,
		Priority:      tr.Current.Priority,
		Title:         c.catalog.Title(tr.Current.Song),
		PriorSong:     tr.Prior.Song,
		PriorPriority: tr.Prior.Priority,
		PriorTitle:    c.catalog.Title(tr.Prior.Song),
	})
}
