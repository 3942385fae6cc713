// Package chaos decides when a request gets a synthetic error.
//
// The Injector draws a number in [0, 100) for every decision. When the draw
// is below the configured percentage it answers with one of ErrorCodes,
// chosen uniformly; otherwise it answers 200:
//
//	injector := chaos.NewInjector()
//	status := injector.PickStatus(25) // roughly one request in four fails
//
// # Percentages
//
//   - 0 or below: never inject
//   - 1 to 99: inject with probability p/100
//   - 100 and above: always inject
//
// # Deterministic Runs
//
// The random source is a dependency. Tests and reproducible runs pass a
// seeded source:
//
//	injector := chaos.NewInjector(chaos.WithSource(chaos.NewSeededSource(42)))
//
// # Statistics
//
// Every decision is counted. Stats returns a snapshot:
//
//	stats := injector.Stats()
//	fmt.Printf("draws: %d, injected: %d\n", stats.Draws, stats.Injected)
//
// The Injector is safe for concurrent use. PickStatus never blocks on
// anything but the random source.
package chaos
