// Package requestlog records the requests served by mockroute so they can be
// inspected through the admin API.
//
// It is distinct from operational logging, which uses log/slog. Entries are
// kept in a bounded in-memory store:
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Method: "GET", Path: "/greet", ResponseStatus: 200})
//	recent := store.List(&requestlog.Filter{Limit: 10})
package requestlog
