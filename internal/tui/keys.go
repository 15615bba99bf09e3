package tui

import "sync"

// keyRegistry is the program-wide key source. Every key press is
// dispatched through it before the active view sees the key.
type keyRegistry struct {
	mu       sync.Mutex
	nextID   int
	bindings map[string][]keyBinding
}

type keyBinding struct {
	id int
	fn func()
}

func newKeyRegistry() *keyRegistry {
	return &keyRegistry{bindings: make(map[string][]keyBinding)}
}

// Bind registers fn for key and returns a function removing it.
func (r *keyRegistry) Bind(key string, fn func()) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.bindings[key] = append(r.bindings[key], keyBinding{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		list := r.bindings[key]
		for i, b := range list {
			if b.id == id {
				r.bindings[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(r.bindings[key]) == 0 {
			delete(r.bindings, key)
		}
	}
}

// dispatch runs every handler bound to key and reports whether any ran.
// Handlers run outside the lock so they may bind or unbind.
func (r *keyRegistry) dispatch(key string) bool {
	r.mu.Lock()
	list := append([]keyBinding(nil), r.bindings[key]...)
	r.mu.Unlock()
	for _, b := range list {
		b.fn()
	}
	return len(list) > 0
}
