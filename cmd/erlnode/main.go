// Command erlnode runs a single node: it binds a dispatch process, registers
// the built-in sys module, advertises itself for discovery when etcd
// endpoints are configured, and serves inbound node links.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	count "github.com/jayalane/go-counter"

	"erlnode/config"
	"erlnode/dispatch"
	"erlnode/middleware"
	"erlnode/registry"
	"erlnode/routing"
	"erlnode/term"
)

// Sys answers the basic liveness calls every node exposes: sys:ping and
// sys:time.
type Sys struct{}

func (s *Sys) Ping(args []any) (any, error) {
	return term.Atom("pong"), nil
}

func (s *Sys) Time(args []any) (any, error) {
	return time.Now().UnixMilli(), nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to node config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	count.InitCounters()

	table := routing.NewTable()
	node := table.AddLocal(cfg.Name)

	// The dispatch process owns pid <node.1.0> and answers calls on it
	self := term.Pid{Node: term.Atom(cfg.Name), ID: 1}
	mailbox := node.Bind(self, 0)

	d := dispatch.NewDispatcher(table, cfg.Name, self)
	d.Use(middleware.LoggingMiddleware())
	if cfg.Rate.Limit > 0 {
		d.Use(middleware.RateLimitMiddleware(cfg.Rate.Limit, cfg.Rate.Burst))
	}
	if cfg.CallTimeoutMs > 0 {
		d.Use(middleware.TimeoutMiddleware(time.Duration(cfg.CallTimeoutMs) * time.Millisecond))
	}
	if err := d.Register(&Sys{}); err != nil {
		log.Fatalf("register sys module: %v", err)
	}
	go d.Run(context.Background(), mailbox)

	if len(cfg.EtcdEndpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints)
		if err != nil {
			log.Fatalf("connect etcd: %v", err)
		}
		err = reg.Register(cfg.Name, registry.NodeInstance{
			Addr:  cfg.AdvertiseAddr,
			Proto: "tcp",
		}, 10) // TTL 10s, KeepAlive renews
		if err != nil {
			log.Fatalf("register node: %v", err)
		}
		defer reg.Deregister(cfg.Name, cfg.AdvertiseAddr)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.ListenAddr, err)
	}
	log.Printf("node %s listening on %s", cfg.Name, listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Fatalf("accept: %v", err)
		}
		go func() {
			if err := table.ServeConn(conn); err != nil {
				log.Printf("node link closed: %v", err)
			}
		}()
	}
}
