package loadbalance

import (
	"fmt"
	"sync/atomic"

	"erlnode/registry"
)

// RoundRobinBalancer walks the endpoint list in order, one step per Pick.
// The atomic counter keeps it lock-free and goroutine-safe.
type RoundRobinBalancer struct {
	counter atomic.Int64
}

func (b *RoundRobinBalancer) Pick(instances []registry.NodeInstance) (*registry.NodeInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}
	index := b.counter.Add(1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
