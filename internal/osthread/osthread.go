// Package osthread reports the identity of the operating system thread the
// calling goroutine is running on.
//
// The value is only stable for goroutines that called runtime.LockOSThread.
// On systems without a thread id call it is the goroutine id, which tells
// locked goroutines apart just as well.
package osthread

// ID returns the current OS thread id, or 0 if it cannot be determined.
func ID() uint64 {
	return currentID()
}
