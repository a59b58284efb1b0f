package overlay

import (
	"math/rand/v2"
	"sync"
)

const (
	minRandomNameLen = 8
	maxRandomNameLen = 16
)

// nameRegistry hands out random lowercase ASCII names and remembers every
// class name it produced so that no two windows in the process ever share
// one.
type nameRegistry struct {
	mu      sync.Mutex
	rng     *rand.Rand
	classes map[string]struct{}
}

// names is created on first use and lives for the rest of the process.
// Class names are never released: a class may still be registered with the
// platform after its window is gone.
var names = sync.OnceValue(func() *nameRegistry {
	return &nameRegistry{
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		classes: make(map[string]struct{}),
	}
})

func (r *nameRegistry) randomString() string {
	n := minRandomNameLen + r.rng.IntN(maxRandomNameLen-minRandomNameLen)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.rng.IntN(26))
	}
	return string(b)
}

func (r *nameRegistry) class() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		name := r.randomString()
		if _, used := r.classes[name]; !used {
			r.classes[name] = struct{}{}
			return name
		}
	}
}

func (r *nameRegistry) title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.randomString()
}

// RandomClassName returns a random window class name that was never
// returned before in this process.
func RandomClassName() string {
	return names().class()
}

// RandomTitle returns a random window title. Titles may repeat.
func RandomTitle() string {
	return names().title()
}
