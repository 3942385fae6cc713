package storage

import (
	"github.com/getmockd/mockroute/pkg/route"
)

// RouteStore is a concurrent route table keyed by exact path.
type RouteStore interface {
	// Get returns a copy of the route stored at path.
	Get(path string) (route.Route, bool)

	// Upsert inserts r, fully replacing any route already stored at r.Path.
	Upsert(r route.Route)

	// UpsertBatch upserts each route in order. Each upsert is atomic;
	// the batch as a whole is not.
	UpsertBatch(routes []route.Route)

	// Delete removes the route at path. Returns false if none was stored.
	Delete(path string) bool

	// List returns every stored route, sorted by path.
	List() []route.Route

	// Count returns the number of stored routes.
	Count() int
}
