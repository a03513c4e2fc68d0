package timedata

import "container/list"

// Gate admits at most one live sample per peer within a bounded recency
// window. The window keeps the most recently admitted peers first and
// forgets the oldest once it grows past capacity, after which that peer
// may be admitted again. It is not safe for concurrent use.
type Gate[K comparable] struct {
	capacity int
	known    map[K]*list.Element
	recent   *list.List // front is most recent
}

// NewGate creates a gate remembering at most capacity peers
func NewGate[K comparable](capacity int) *Gate[K] {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate[K]{
		capacity: capacity,
		known:    make(map[K]*list.Element, capacity+1),
		recent:   list.New(),
	}
}

// Admit reports whether id is new to the window, recording it if so
func (g *Gate[K]) Admit(id K) bool {
	if _, exists := g.known[id]; exists {
		return false
	}

	g.known[id] = g.recent.PushFront(id)

	if g.recent.Len() > g.capacity {
		oldest := g.recent.Back()
		g.recent.Remove(oldest)
		delete(g.known, oldest.Value.(K))
	}

	return true
}

// Contains reports whether id is currently in the window
func (g *Gate[K]) Contains(id K) bool {
	_, exists := g.known[id]
	return exists
}

// Len returns the number of peers in the window
func (g *Gate[K]) Len() int {
	return g.recent.Len()
}

// Capacity returns the window bound
func (g *Gate[K]) Capacity() int {
	return g.capacity
}

// Recent returns the peers in the window, most recent first
func (g *Gate[K]) Recent() []K {
	ids := make([]K, 0, g.recent.Len())
	for e := g.recent.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(K))
	}
	return ids
}
