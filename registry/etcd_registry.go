// Package registry provides node discovery: which endpoints answer for a
// given node name.
//
// The etcd implementation plays the role a port mapper daemon plays in a
// classic distribution setup, except cluster-wide and lease-backed:
//
//	Key:   /erlnode/{NodeName}/{Addr}
//	Value: JSON-encoded NodeInstance
//
// Registration attaches a TTL lease with background KeepAlive; a node that
// dies stops renewing and its endpoints age out on their own, so peers never
// dial ghosts for long.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

func nodePrefix(nodeName string) string {
	return "/erlnode/" + nodeName + "/"
}

// Register advertises one endpoint for nodeName with a TTL lease.
//
// The lease ID stays local to this call: a single EtcdRegistry may be shared
// by several registering nodes, and storing the ID on the struct would race.
func (r *EtcdRegistry) Register(nodeName string, instance NodeInstance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, nodePrefix(nodeName)+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	// Background lease renewal; the channel must be drained or KeepAlive
	// stops delivering and the lease eventually expires.
	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister withdraws one endpoint, typically during graceful node shutdown
// so peers stop dialing before the listener closes.
func (r *EtcdRegistry) Deregister(nodeName string, addr string) error {
	_, err := r.client.Delete(context.TODO(), nodePrefix(nodeName)+addr)
	return err
}

// Discover returns every endpoint currently advertised for nodeName.
func (r *EtcdRegistry) Discover(nodeName string) ([]NodeInstance, error) {
	resp, err := r.client.Get(context.TODO(), nodePrefix(nodeName), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]NodeInstance, 0)
	for _, kv := range resp.Kvs {
		var instance NodeInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // Skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch emits the full endpoint list for nodeName whenever it changes
// (registration, withdrawal, lease expiry). Server-push via etcd's Watch API,
// re-fetching the list on each event rather than folding individual deltas.
func (r *EtcdRegistry) Watch(nodeName string) <-chan []NodeInstance {
	ch := make(chan []NodeInstance, 1)

	go func() {
		watchChan := r.client.Watch(context.TODO(), nodePrefix(nodeName), clientv3.WithPrefix())
		for range watchChan {
			instances, _ := r.Discover(nodeName)
			ch <- instances
		}
	}()

	return ch
}
