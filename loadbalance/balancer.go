// Package loadbalance selects which advertised endpoint to dial when a node
// name resolves to more than one (multi-homed peers, migration overlap).
//
// Three strategies:
//   - RoundRobin:      equal-capacity endpoints, spread connection setup
//   - WeightedRandom:  endpoints with different capacity weights
//   - ConsistentHash:  pid-keyed affinity — same target pid, same endpoint
package loadbalance

import "erlnode/registry"

// Balancer picks one endpoint from the discovered list. Pick is called on
// every connection attempt and must be goroutine-safe.
type Balancer interface {
	Pick(instances []registry.NodeInstance) (*registry.NodeInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
