//go:build !linux && !windows

package osthread

// There is no portable thread id here. Callers lock their goroutine to a
// thread before asking, so the goroutine id identifies the thread as well.
func currentID() uint64 {
	return goroutineID()
}
