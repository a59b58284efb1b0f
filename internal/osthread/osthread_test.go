package osthread

import (
	"runtime"
	"testing"
)

func TestIDStableWhileLocked(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	first := ID()
	if first == 0 {
		t.Fatal("expected a non-zero thread id")
	}
	runtime.Gosched()
	if got := ID(); got != first {
		t.Errorf("thread id changed while locked: %d -> %d", first, got)
	}
}

func TestIDDiffersAcrossLockedGoroutines(t *testing.T) {
	ids := make(chan uint64, 2)
	release := make(chan struct{})
	for range 2 {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			ids <- ID()
			<-release
		}()
	}
	a, b := <-ids, <-ids
	close(release)

	if a == b {
		t.Errorf("two locked goroutines reported the same thread id %d", a)
	}
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	if id == 0 {
		t.Fatal("goroutineID = 0")
	}
	if again := goroutineID(); again != id {
		t.Errorf("goroutineID changed: %d -> %d", id, again)
	}
	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	if o := <-other; o == id || o == 0 {
		t.Errorf("other goroutine id = %d, caller %d", o, id)
	}
}
