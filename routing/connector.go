package routing

import (
	"fmt"
	"net"

	"erlnode/loadbalance"
	"erlnode/registry"
)

// Connector establishes connections to remote nodes: discover the node's
// advertised endpoints, pick one, dial it.
type Connector struct {
	reg registry.Registry
	bal loadbalance.Balancer
}

func NewConnector(reg registry.Registry, bal loadbalance.Balancer) *Connector {
	return &Connector{reg: reg, bal: bal}
}

// Connect dials nodeName and returns its handle. The caller registers it in
// a Table (and owns closing it).
func (c *Connector) Connect(nodeName string) (*RemoteNode, error) {
	instances, err := c.reg.Discover(nodeName)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("no endpoints registered for node %s", nodeName)
	}

	instance, err := c.bal.Pick(instances)
	if err != nil {
		return nil, err
	}

	proto := instance.Proto
	if proto == "" {
		proto = "tcp"
	}
	conn, err := net.Dial(proto, instance.Addr)
	if err != nil {
		return nil, err
	}

	return NewRemoteNode(nodeName, conn), nil
}
