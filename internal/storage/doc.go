// Package storage holds the route table.
//
// RouteStore is the contract the dispatcher and the mutator work against.
// InMemoryRouteStore is the only implementation: a map keyed by exact path,
// guarded by a single lock that is held for one operation at a time. Reads
// return copies, so a caller never observes a route while it is replaced.
//
// Route changes are not persisted; the table lives as long as the process.
package storage
