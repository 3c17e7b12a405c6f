package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func testConfig() EtcdConfig {
	cfg := DefaultEtcdConfig()
	cfg.Prefix = "/lab/"
	return cfg
}

// startWatcher runs a Watcher over store and returns its snapshots and the
// result of Start.
func startWatcher(t *testing.T, ctx context.Context, store *memStore) (<-chan protocol.TopologySnapshot, <-chan error) {
	t.Helper()
	snaps := make(chan protocol.TopologySnapshot, 32)
	w := NewWatcherWithClient(store, store, testConfig(), func(snap protocol.TopologySnapshot) {
		snaps <- snap
	})
	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()
	return snaps, errc
}

// waitSnapshot reads snapshots until one satisfies ok.
func waitSnapshot(t *testing.T, snaps <-chan protocol.TopologySnapshot, ok func(protocol.TopologySnapshot) bool) protocol.TopologySnapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-snaps:
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return protocol.TopologySnapshot{}
		}
	}
}

func waitStopped(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
		return nil
	}
}

func TestPublishedLinkReachesWatcher(t *testing.T) {
	store := newMemStore()
	pub := NewPublisherWithKV(store, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.PublishSwitch(ctx, 1))
	snaps, errc := startWatcher(t, ctx, store)

	first := waitSnapshot(t, snaps, func(protocol.TopologySnapshot) bool { return true })
	assert.Equal(t, []uint64{1}, first.Switches)
	assert.Empty(t, first.Links)

	require.NoError(t, pub.PublishSwitch(ctx, 2))
	require.NoError(t, pub.PublishLink(ctx, LinkRecord{Src: 1, Dst: 2, SrcPort: 2, DstPort: 3}))

	snap := waitSnapshot(t, snaps, func(s protocol.TopologySnapshot) bool { return len(s.Links) == 2 })
	assert.Equal(t, []uint64{1, 2}, snap.Switches)
	assert.Equal(t, []protocol.Link{
		{SrcSwitch: 1, DstSwitch: 2, SrcPort: 2, DstPort: 3},
		{SrcSwitch: 2, DstSwitch: 1, SrcPort: 3, DstPort: 2},
	}, snap.Links)

	// the watch resumes right after the revision of the initial read
	assert.Equal(t, []int64{2}, store.startRevs())

	cancel()
	assert.NoError(t, waitStopped(t, errc))
}

func TestDeleteTriggersResync(t *testing.T) {
	store := newMemStore()
	pub := NewPublisherWithKV(store, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.PublishSwitch(ctx, 1))
	require.NoError(t, pub.PublishSwitch(ctx, 2))
	snaps, _ := startWatcher(t, ctx, store)
	waitSnapshot(t, snaps, func(s protocol.TopologySnapshot) bool { return len(s.Switches) == 2 })

	_, err := store.Delete(ctx, SwitchKey("/lab/", 2))
	require.NoError(t, err)

	snap := waitSnapshot(t, snaps, func(s protocol.TopologySnapshot) bool { return len(s.Switches) == 1 })
	assert.Equal(t, []uint64{1}, snap.Switches)
}

func TestWatcherStopsOnWatchError(t *testing.T) {
	store := newMemStore()
	snaps, errc := startWatcher(t, context.Background(), store)
	waitSnapshot(t, snaps, func(protocol.TopologySnapshot) bool { return true })
	require.Eventually(t, func() bool { return len(store.startRevs()) == 1 }, 5*time.Second, 10*time.Millisecond)

	store.send(clientv3.WatchResponse{CompactRevision: 7})
	assert.Error(t, waitStopped(t, errc))
}

func TestWatcherStopsWhenChannelCloses(t *testing.T) {
	store := newMemStore()
	snaps, errc := startWatcher(t, context.Background(), store)
	waitSnapshot(t, snaps, func(protocol.TopologySnapshot) bool { return true })
	require.Eventually(t, func() bool { return len(store.startRevs()) == 1 }, 5*time.Second, 10*time.Millisecond)

	store.closeWatches()
	err := waitStopped(t, errc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestPublishSelfLink(t *testing.T) {
	store := newMemStore()
	pub := NewPublisherWithKV(store, testConfig())

	require.NoError(t, pub.PublishLink(context.Background(), LinkRecord{Src: 3, Dst: 3, SrcPort: 4, DstPort: 5}))

	v, ok := store.value(LinkKey("/lab/", 3, 3))
	require.True(t, ok)
	assert.JSONEq(t, `{"src":3,"dst":3,"src_port":4,"dst_port":5}`, v)
}
