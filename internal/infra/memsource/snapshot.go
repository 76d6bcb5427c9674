package memsource

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/sorane/bgmscope/internal/domain/bgm"
)

// SnapshotSource serves the control-block array from an in-process buffer.
// It backs tests and the "snapshot" source type, which replays a dump file.
type SnapshotSource struct {
	mu        sync.Mutex
	buf       []byte
	available bool
}

// NewSnapshotSource wraps buf as a source. The buffer is aliased, not
// copied, so the caller can mutate it between snapshots to simulate host
// activity.
func NewSnapshotSource(buf []byte) (*SnapshotSource, error) {
	if len(buf) != bgm.ArraySize {
		return nil, errors.Newf("snapshot buffer must be %d bytes, got %d", bgm.ArraySize, len(buf))
	}
	return &SnapshotSource{buf: buf, available: true}, nil
}

// LoadSnapshotFile reads a control-block dump from disk.
func LoadSnapshotFile(path string) (*SnapshotSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot file")
	}
	src, err := NewSnapshotSource(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid snapshot file %s", path)
	}
	return src, nil
}

// Refresh is a no-op; the buffer has no base reference to revalidate.
func (s *SnapshotSource) Refresh() {}

// SetAvailable toggles availability, simulating a lost base reference.
func (s *SnapshotSource) SetAvailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = v
}

// Snapshot returns a copy of the buffer.
func (s *SnapshotSource) Snapshot() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.available {
		return nil, false
	}
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, true
}

// WriteAt writes p into the backing buffer at off.
func (s *SnapshotSource) WriteAt(off int, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.available {
		return ErrUnavailable
	}
	if off < 0 || off+len(p) > len(s.buf) {
		return errors.Newf("write of %d bytes at offset %d exceeds array size %d", len(p), off, len(s.buf))
	}
	copy(s.buf[off:], p)
	return nil
}
