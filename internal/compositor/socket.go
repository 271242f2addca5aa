package compositor

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// maxSocketIndex bounds the wayland-N name search (auto-allocation
// of wayland-N").
const maxSocketIndex = 32

// ListenSocket is a bound, named AF_UNIX/SOCK_STREAM socket under
// XDG_RUNTIME_DIR, plus the lock file libwayland-compatible clients expect
// next to it.
type ListenSocket struct {
	Name string // e.g. "wayland-0"
	Path string
	ln   *net.UnixListener
	lock *os.File
}

// runtimeDir returns XDG_RUNTIME_DIR, falling back to /tmp/wayoa-<uid> when
// unset so the compositor still starts in a minimal environment.
func runtimeDir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("wayoa-%d", os.Getuid()))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("compositor: fallback runtime dir: %w", err)
	}
	return dir, nil
}

// Listen allocates the first free wayland-N socket name (N in [0,
// maxSocketIndex)) under XDG_RUNTIME_DIR, binds it, and returns the listener.
// The allocation follows libwayland's own convention: a ".lock" file claims
// the name, then the socket is bound; a lock file that exists but whose
// socket is gone is treated as stale and reclaimed.
func Listen() (*ListenSocket, error) {
	dir, err := runtimeDir()
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxSocketIndex; i++ {
		name := fmt.Sprintf("wayland-%d", i)
		sockPath := filepath.Join(dir, name)
		lockPath := sockPath + ".lock"

		lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			continue
		}
		if !tryFlock(lock) {
			lock.Close()
			continue
		}

		// A stale socket file from a prior crashed compositor blocks bind;
		// since we hold the lock, it is safe to remove.
		if _, statErr := os.Stat(sockPath); statErr == nil {
			os.Remove(sockPath)
		}

		ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: sockPath, Net: "unix"})
		if err != nil {
			lock.Close()
			continue
		}

		return &ListenSocket{Name: name, Path: sockPath, ln: ln, lock: lock}, nil
	}
	return nil, ErrSocketInUse
}

// Accept blocks for the next client connection.
func (s *ListenSocket) Accept() (*net.UnixConn, error) {
	return s.ln.AcceptUnix()
}

// Close releases the listener, socket file, and lock.
func (s *ListenSocket) Close() error {
	err := s.ln.Close()
	os.Remove(s.Path)
	s.lock.Close()
	os.Remove(s.Path + ".lock")
	return err
}
