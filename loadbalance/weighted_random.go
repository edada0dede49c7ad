package loadbalance

import (
	"fmt"
	"math/rand"

	"erlnode/registry"
)

// WeightedRandomBalancer picks an endpoint with probability proportional to
// its registered weight. Endpoints registered without a weight count as 1, so
// a list of all-zero weights still picks uniformly instead of erroring.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(instances []registry.NodeInstance) (*registry.NodeInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	totalWeight := 0
	for _, v := range instances {
		totalWeight += max(v.Weight, 1)
	}

	r := rand.Intn(totalWeight)
	for i := range instances {
		r -= max(instances[i].Weight, 1)
		if r < 0 {
			return &instances[i], nil
		}
	}

	return nil, fmt.Errorf("unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
