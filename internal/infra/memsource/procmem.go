package memsource

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/sorane/bgmscope/internal/domain/bgm"
)

// ProcSource reads the control-block array out of a live process via
// process_vm_readv. The target is located by its /proc comm name; the array
// address within the target's address space is fixed per host build and
// comes from configuration.
type ProcSource struct {
	mu      sync.Mutex
	process string
	address uintptr
	pid     int // 0 while unresolved
}

// NewProcSource creates a source for the named process and array address.
func NewProcSource(process string, address uint64) *ProcSource {
	return &ProcSource{process: process, address: uintptr(address)}
}

// Refresh re-resolves the target pid when none is held or the previous one
// died. It never fails; an unresolvable target leaves the source
// unavailable until a later Refresh succeeds.
func (s *ProcSource) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pid != 0 && processAlive(s.pid) {
		return
	}
	if s.pid != 0 {
		zlog.Debug().Msgf("memsource: process %s (pid %d) went away", s.process, s.pid)
	}
	s.pid = findPID(s.process)
	if s.pid != 0 {
		zlog.Info().Msgf("memsource: attached to %s (pid %d, array at 0x%x)", s.process, s.pid, s.address)
	}
}

// Snapshot reads a fresh copy of the array from the target.
func (s *ProcSource) Snapshot() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pid == 0 {
		return nil, false
	}

	buf := make([]byte, bgm.ArraySize)
	local := unix.Iovec{Base: &buf[0]}
	local.SetLen(len(buf))
	remote := unix.RemoteIovec{Base: s.address, Len: len(buf)}

	n, err := unix.ProcessVMReadv(s.pid, []unix.Iovec{local}, []unix.RemoteIovec{remote}, 0)
	if err != nil || n != len(buf) {
		zlog.Debug().Msgf("memsource: read from pid %d failed: n=%d err=%v", s.pid, n, err)
		s.pid = 0
		return nil, false
	}
	return buf, true
}

// WriteAt writes p into the target's array at the given byte offset.
func (s *ProcSource) WriteAt(off int, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pid == 0 {
		return ErrUnavailable
	}
	if off < 0 || off+len(p) > bgm.ArraySize {
		return errors.Newf("write of %d bytes at offset %d exceeds array size %d", len(p), off, bgm.ArraySize)
	}
	if len(p) == 0 {
		return nil
	}

	local := unix.Iovec{Base: &p[0]}
	local.SetLen(len(p))
	remote := unix.RemoteIovec{Base: s.address + uintptr(off), Len: len(p)}

	n, err := unix.ProcessVMWritev(s.pid, []unix.Iovec{local}, []unix.RemoteIovec{remote}, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to write %d bytes to pid %d", len(p), s.pid)
	}
	if n != len(p) {
		return errors.Newf("short write to pid %d: %d of %d bytes", s.pid, n, len(p))
	}
	return nil
}

// findPID scans /proc for a process whose comm matches name. Returns 0 when
// no match exists.
func findPID(name string) int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(comm)) == name {
			return pid
		}
	}
	return 0
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
