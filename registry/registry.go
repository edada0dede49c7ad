package registry

// NodeInstance is one advertised endpoint of a node. Multi-homed nodes
// register several instances under the same node name.
type NodeInstance struct {
	Addr   string
	Weight int    // Weight for endpoint selection
	Proto  string // Transport protocol, "tcp" if empty
}

type Registry interface {
	Register(nodeName string, instance NodeInstance, ttl int64) error
	Deregister(nodeName string, addr string) error
	Discover(nodeName string) ([]NodeInstance, error)
	Watch(nodeName string) <-chan []NodeInstance
}
