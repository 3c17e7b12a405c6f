package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	Prefix      string
}

func DefaultEtcdConfig() EtcdConfig {
	return EtcdConfig{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
		Prefix:      "/topology/",
	}
}

type SnapshotHandler func(snap protocol.TopologySnapshot)

// Watcher follows the discovery key space in etcd. Any change under the
// prefix triggers a full read and one TopologySnapshot.
type Watcher struct {
	client    *clientv3.Client
	kv        clientv3.KV
	watch     clientv3.Watcher
	watcherID string
	config    EtcdConfig
	handler   SnapshotHandler
}

func NewWatcher(config EtcdConfig, handler SnapshotHandler) (*Watcher, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	w := NewWatcherWithClient(client, client, config, handler)
	w.client = client
	return w, nil
}

// NewWatcherWithClient builds a Watcher over an existing etcd KV and watch
// API. Close does not close them.
func NewWatcherWithClient(kv clientv3.KV, watch clientv3.Watcher, config EtcdConfig, handler SnapshotHandler) *Watcher {
	return &Watcher{
		kv:        kv,
		watch:     watch,
		watcherID: "watcher-" + uuid.NewString(),
		config:    config,
		handler:   handler,
	}
}

func (w *Watcher) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

// Sync reads the whole prefix and hands the snapshot to the handler. It
// returns the store revision the snapshot was read at.
func (w *Watcher) Sync(ctx context.Context) (int64, error) {
	resp, err := w.kv.Get(ctx, w.config.Prefix, clientv3.WithPrefix())
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", w.config.Prefix, err)
	}

	kvs := make([]KeyValue, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		kvs = append(kvs, KeyValue{Key: string(kv.Key), Value: kv.Value})
	}
	snap := BuildSnapshot(w.config.Prefix, kvs)
	log.Infof("[%s] discovery snapshot rev=%d: %d switches, %d links",
		w.watcherID, resp.Header.Revision, len(snap.Switches), len(snap.Links))

	w.handler(snap)
	return resp.Header.Revision, nil
}

// Start syncs once and then resyncs on every change until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	rev, err := w.Sync(ctx)
	if err != nil {
		return err
	}

	watchChan := w.watch.Watch(ctx, w.config.Prefix, clientv3.WithPrefix(), clientv3.WithRev(rev+1))
	log.Infof("[%s] watching %s from rev %d", w.watcherID, w.config.Prefix, rev+1)

	for {
		select {
		case <-ctx.Done():
			log.Infof("[%s] watcher shutting down", w.watcherID)
			return nil

		case resp, ok := <-watchChan:
			if !ok {
				return fmt.Errorf("watch channel closed")
			}
			if err := resp.Err(); err != nil {
				return fmt.Errorf("watch %s: %w", w.config.Prefix, err)
			}
			if len(resp.Events) == 0 {
				continue
			}
			if _, err := w.Sync(ctx); err != nil {
				log.Errorf("[%s] resync failed: %v", w.watcherID, err)
			}
		}
	}
}
