package storage

import (
	"sort"
	"sync"

	"github.com/getmockd/mockroute/pkg/route"
)

// InMemoryRouteStore is a thread-safe in-memory implementation of RouteStore.
type InMemoryRouteStore struct {
	mu     sync.RWMutex
	routes map[string]route.Route
}

// NewInMemoryRouteStore creates an empty InMemoryRouteStore.
func NewInMemoryRouteStore() *InMemoryRouteStore {
	return &InMemoryRouteStore{
		routes: make(map[string]route.Route),
	}
}

// Get returns a copy of the route stored at path.
func (s *InMemoryRouteStore) Get(path string) (route.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[path]
	return r, ok
}

// Upsert stores r under r.Path, replacing every field of a previous entry.
func (s *InMemoryRouteStore) Upsert(r route.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[r.Path] = r
}

// UpsertBatch takes the lock once per route so readers are never held
// behind a large update.
func (s *InMemoryRouteStore) UpsertBatch(routes []route.Route) {
	for _, r := range routes {
		s.Upsert(r)
	}
}

// Delete removes the route at path. Returns true if deleted, false if not found.
func (s *InMemoryRouteStore) Delete(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.routes[path]; exists {
		delete(s.routes, path)
		return true
	}
	return false
}

// List returns all stored routes sorted by path.
func (s *InMemoryRouteStore) List() []route.Route {
	s.mu.RLock()
	result := make([]route.Route, 0, len(s.routes))
	for _, r := range s.routes {
		result = append(result, r)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// Count returns the number of stored routes.
func (s *InMemoryRouteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

// Ensure InMemoryRouteStore implements RouteStore.
var _ RouteStore = (*InMemoryRouteStore)(nil)
