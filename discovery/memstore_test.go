package discovery

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var errDuplicateKey = errors.New("duplicate key given in txn request")

// memStore is an in-memory stand-in for the etcd KV and watch APIs. Every
// write bumps the revision and notifies all watchers. A watch that starts
// at or before the current revision gets one catch-up response.
type memStore struct {
	mu       sync.Mutex
	rev      int64
	data     map[string]string
	watches  []chan clientv3.WatchResponse
	watchRev []int64
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) header() *etcdserverpb.ResponseHeader {
	return &etcdserverpb.ResponseHeader{Revision: s.rev}
}

func (s *memStore) apply(ops []clientv3.Op) error {
	seen := make(map[string]bool)
	for _, op := range ops {
		key := string(op.KeyBytes())
		if seen[key] {
			return errDuplicateKey
		}
		seen[key] = true
	}

	s.mu.Lock()
	s.rev++
	for _, op := range ops {
		key := string(op.KeyBytes())
		switch {
		case op.IsPut():
			s.data[key] = string(op.ValueBytes())
		case op.IsDelete():
			delete(s.data, key)
		}
	}
	watches := append([]chan clientv3.WatchResponse(nil), s.watches...)
	s.mu.Unlock()

	for _, ch := range watches {
		ch <- clientv3.WatchResponse{Events: make([]*clientv3.Event, len(ops))}
	}
	return nil
}

func (s *memStore) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	if err := s.apply([]clientv3.Op{clientv3.OpPut(key, val)}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &clientv3.PutResponse{Header: s.header()}, nil
}

// Get always reads by prefix.
func (s *memStore) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, key) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	resp := &clientv3.GetResponse{Header: s.header()}
	for _, k := range keys {
		resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(s.data[k])})
	}
	resp.Count = int64(len(resp.Kvs))
	return resp, nil
}

func (s *memStore) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	if err := s.apply([]clientv3.Op{clientv3.OpDelete(key)}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &clientv3.DeleteResponse{Header: s.header()}, nil
}

func (s *memStore) Compact(ctx context.Context, rev int64, opts ...clientv3.CompactOption) (*clientv3.CompactResponse, error) {
	return &clientv3.CompactResponse{}, nil
}

func (s *memStore) Do(ctx context.Context, op clientv3.Op) (clientv3.OpResponse, error) {
	return clientv3.OpResponse{}, errors.New("memStore: Do not supported")
}

func (s *memStore) Txn(ctx context.Context) clientv3.Txn {
	return &memTxn{store: s}
}

func (s *memStore) Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan {
	start := clientv3.OpGet(key, opts...).Rev()
	ch := make(chan clientv3.WatchResponse, 64)

	s.mu.Lock()
	s.watches = append(s.watches, ch)
	s.watchRev = append(s.watchRev, start)
	if start > 0 && start <= s.rev {
		ch <- clientv3.WatchResponse{Events: make([]*clientv3.Event, 1)}
	}
	s.mu.Unlock()
	return ch
}

func (s *memStore) RequestProgress(ctx context.Context) error { return nil }

func (s *memStore) Close() error { return nil }

// send pushes resp to every open watch.
func (s *memStore) send(resp clientv3.WatchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watches {
		ch <- resp
	}
}

func (s *memStore) closeWatches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watches {
		close(ch)
	}
	s.watches = nil
}

func (s *memStore) startRevs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.watchRev...)
}

func (s *memStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

type memTxn struct {
	store *memStore
	ops   []clientv3.Op
}

func (t *memTxn) If(cs ...clientv3.Cmp) clientv3.Txn { return t }

func (t *memTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.ops = append(t.ops, ops...)
	return t
}

func (t *memTxn) Else(ops ...clientv3.Op) clientv3.Txn { return t }

func (t *memTxn) Commit() (*clientv3.TxnResponse, error) {
	if err := t.store.apply(t.ops); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return &clientv3.TxnResponse{Header: t.store.header(), Succeeded: true}, nil
}
