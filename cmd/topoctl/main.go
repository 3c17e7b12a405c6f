// topoctl publishes switches and links into the discovery key space the
// controller watches.
//
//	topoctl -endpoints localhost:2379 switch 1
//	topoctl link 1:2 2:2
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/a-powelson/Ryu-Firewall/discovery"
	log "github.com/sirupsen/logrus"
)

// parseEndpoint reads "dpid:port".
func parseEndpoint(s string) (uint64, uint32, error) {
	dpidStr, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected dpid:port, got %q", s)
	}
	dpid, err := strconv.ParseUint(dpidStr, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("dpid in %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("port in %q: %w", s, err)
	}
	return dpid, uint32(port), nil
}

func run(ctx context.Context, pub *discovery.Publisher, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command: switch <dpid> | link <dpid:port> <dpid:port>")
	}
	switch args[0] {
	case "switch":
		if len(args) != 2 {
			return fmt.Errorf("usage: switch <dpid>")
		}
		dpid, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("dpid: %w", err)
		}
		return pub.PublishSwitch(ctx, dpid)

	case "link":
		if len(args) != 3 {
			return fmt.Errorf("usage: link <dpid:port> <dpid:port>")
		}
		src, srcPort, err := parseEndpoint(args[1])
		if err != nil {
			return err
		}
		dst, dstPort, err := parseEndpoint(args[2])
		if err != nil {
			return err
		}
		return pub.PublishLink(ctx, discovery.LinkRecord{Src: src, Dst: dst, SrcPort: srcPort, DstPort: dstPort})

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func main() {
	defaults := discovery.DefaultEtcdConfig()
	endpoints := flag.String("endpoints", strings.Join(defaults.Endpoints, ","), "comma separated etcd endpoints")
	prefix := flag.String("prefix", defaults.Prefix, "discovery key prefix")
	timeout := flag.Duration("timeout", defaults.DialTimeout, "etcd dial and request timeout")
	flag.Parse()

	pub, err := discovery.NewPublisher(discovery.EtcdConfig{
		Endpoints:   strings.Split(*endpoints, ","),
		DialTimeout: *timeout,
		Prefix:      *prefix,
	})
	if err != nil {
		log.Fatalf("connecting to etcd failed, err:%v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	if err := run(ctx, pub, flag.Args()); err != nil {
		log.Errorf("%v", err)
		pub.Close()
		os.Exit(1)
	}
}
