// Package memsource supplies the tracker's view onto the host process's
// control-block array.
package memsource

import "github.com/cockroachdb/errors"

// ErrUnavailable is returned by write operations when no valid base
// reference to the host memory exists.
var ErrUnavailable = errors.New("memory source unavailable")

// Source is the memory-access collaborator.
//
// Refresh revalidates the base location of the control-block array. It is
// idempotent and cheap, and it never fails; an unresolvable base simply
// leaves the source unavailable.
//
// Snapshot returns a fresh copy of the full control-block array, or
// ok=false when no valid base reference exists.
//
// WriteAt writes back into the live array at the given byte offset.
type Source interface {
	Refresh()
	Snapshot() (data []byte, ok bool)
	WriteAt(off int, p []byte) error
}
