package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"erlnode/registry"
)

// ConsistentHashBalancer maps keys to endpoints on a hash ring. Keyed by the
// target pid's rendering, it sends all traffic for one pid through the same
// endpoint while the ring is stable — per-pid signal ordering survives a
// multi-homed peer.
//
// Each real endpoint owns N virtual nodes on the ring; without them a few
// endpoints can cluster and take uneven shares. 100 virtual nodes per
// endpoint is enough for statistical uniformity.
type ConsistentHashBalancer struct {
	replicas int                              // Virtual nodes per real endpoint
	ring     []uint32                         // Sorted hash values on the ring
	nodes    map[uint32]*registry.NodeInstance // Hash value → endpoint
}

// NewConsistentHashBalancer creates an empty ring with 100 virtual nodes per
// endpoint.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*registry.NodeInstance),
	}
}

// Add places an endpoint onto the ring with its virtual nodes, hashing
// "{addr}#{i}" so replicas of one endpoint spread across the ring.
func (b *ConsistentHashBalancer) Add(instance *registry.NodeInstance) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", instance.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	// Ring stays sorted so Pick can binary-search
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// Pick finds the endpoint responsible for key (clockwise-nearest virtual
// node, wrapping past the top of the ring).
//
// Note: Pick takes a string key, not an instance list — consistent hashing is
// key-based and does not satisfy the Balancer interface directly.
func (b *ConsistentHashBalancer) Pick(key string) (*registry.NodeInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("no endpoints on the ring")
	}
	hash := crc32.ChecksumIEEE([]byte(key))

	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
