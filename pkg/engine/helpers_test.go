package engine

import (
	"sync"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/route"
)

// stubSource replays fixed draws, wrapping around.
type stubSource struct {
	mu    sync.Mutex
	draws []int
	pos   int
}

func (s *stubSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.draws[s.pos%len(s.draws)] % n
	s.pos++
	return v
}

func stubInjector(draws ...int) *chaos.Injector {
	return chaos.NewInjector(chaos.WithSource(&stubSource{draws: draws}))
}

func newTestStore(routes ...route.Route) *storage.InMemoryRouteStore {
	store := storage.NewInMemoryRouteStore()
	store.UpsertBatch(routes)
	return store
}

func greetRoute() route.Route {
	return route.Route{Method: "GET", Path: "/greet", Response: "hi", Code: 200}
}
