// Package song provides the song metadata catalog.
package song

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/sorane/bgmscope/internal/domain/bgm"
)

// Entry describes one song in the host's music sheet.
type Entry struct {
	ID       uint16 `yaml:"id"`
	Title    string `yaml:"title"`
	Location string `yaml:"location,omitempty"`
}

// Catalog is an id -> metadata lookup built from a local sheet export. A
// nil catalog is valid and resolves every id to its fallback title.
type Catalog struct {
	byID map[uint16]Entry
}

// New builds a catalog from entries. Duplicate ids keep the last entry.
func New(entries []Entry) *Catalog {
	byID := make(map[uint16]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return &Catalog{byID: byID}
}

// Load reads a YAML sheet export from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read song catalog")
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse song catalog %s", path)
	}
	return New(entries), nil
}

// Get returns the catalog entry for a song id.
func (c *Catalog) Get(id uint16) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byID[id]
	return e, ok
}

// Title returns the display title for a song id. Id 0 is the "nothing
// playing" value; unknown ids get a numeric fallback.
func (c *Catalog) Title(id uint16) string {
	if id == 0 {
		return "silence"
	}
	if id == bgm.SentinelSongID {
		return "(sentinel)"
	}
	if e, ok := c.Get(id); ok && e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("unknown (%d)", id)
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
