package compositor

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryFlock attempts a non-blocking exclusive advisory lock on f, returning
// false if another process already holds it.
func tryFlock(f *os.File) bool {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	return err == nil
}
