package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Publisher writes discovered switches and links for a Watcher to pick up.
// It is the interface a discovery agent uses.
type Publisher struct {
	client      *clientv3.Client
	kv          clientv3.KV
	publisherID string
	config      EtcdConfig
}

func NewPublisher(config EtcdConfig) (*Publisher, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	p := NewPublisherWithKV(client, config)
	p.client = client
	return p, nil
}

// NewPublisherWithKV builds a Publisher over an existing etcd KV API.
func NewPublisherWithKV(kv clientv3.KV, config EtcdConfig) *Publisher {
	return &Publisher{
		kv:          kv,
		publisherID: "publisher-" + uuid.NewString(),
		config:      config,
	}
}

func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *Publisher) PublishSwitch(ctx context.Context, dpid uint64) error {
	value, err := json.Marshal(SwitchRecord{DPID: dpid})
	if err != nil {
		return err
	}
	key := SwitchKey(p.config.Prefix, dpid)
	if _, err := p.kv.Put(ctx, key, string(value)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	log.Infof("[%s] published switch s%d", p.publisherID, dpid)
	return nil
}

// PublishLink stores both directions of a link in one transaction so a
// watcher never sees half of it. A self-link has a single key and is
// stored once.
func (p *Publisher) PublishLink(ctx context.Context, link LinkRecord) error {
	fwd, err := json.Marshal(link)
	if err != nil {
		return err
	}
	ops := []clientv3.Op{clientv3.OpPut(LinkKey(p.config.Prefix, link.Src, link.Dst), string(fwd))}

	if link.Src != link.Dst {
		rev, err := json.Marshal(LinkRecord{Src: link.Dst, Dst: link.Src, SrcPort: link.DstPort, DstPort: link.SrcPort})
		if err != nil {
			return err
		}
		ops = append(ops, clientv3.OpPut(LinkKey(p.config.Prefix, link.Dst, link.Src), string(rev)))
	}

	_, err = p.kv.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		return fmt.Errorf("put link s%d-s%d: %w", link.Src, link.Dst, err)
	}
	log.Infof("[%s] published link s%d:%d <-> s%d:%d", p.publisherID, link.Src, link.SrcPort, link.Dst, link.DstPort)
	return nil
}
