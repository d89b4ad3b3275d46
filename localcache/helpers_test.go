package localcache_test

import (
	"context"
	"sync"

	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
)

// fakeDatabase is an in-memory localcache.Database, following the
// get-returns-nil-nil-on-miss convention the real drivers share.
type fakeDatabase struct {
	mu   sync.Mutex
	data map[string][]byte

	getErr    error
	putErr    error
	deleteErr error
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{data: make(map[string][]byte)}
}

func (d *fakeDatabase) Close() error { return nil }

func (d *fakeDatabase) Get(key []byte) ([]byte, error) {
	if d.getErr != nil {
		return nil, d.getErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (d *fakeDatabase) Put(key, value []byte) error {
	if d.putErr != nil {
		return d.putErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (d *fakeDatabase) Delete(key []byte) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, string(key))
	return nil
}

func (d *fakeDatabase) has(key []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.data[string(key)]
	return ok
}

// fakeUpstream is an in-memory chunkstore.ChunkStore that records how many
// times each operation was called, so cache-hit tests can assert upstream
// was never touched.
type fakeUpstream struct {
	mu     sync.Mutex
	chunks map[datamap.Hash][]byte

	gets    int
	puts    int
	deletes int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{chunks: make(map[datamap.Hash][]byte)}
}

func (u *fakeUpstream) Get(_ context.Context, hash datamap.Hash) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gets++
	data, ok := u.chunks[hash]
	if !ok {
		return nil, ferrors.Newf(ferrors.NotFound, "fakeUpstream: %s not found", hash)
	}
	return data, nil
}

func (u *fakeUpstream) Put(_ context.Context, hash datamap.Hash, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.puts++
	u.chunks[hash] = append([]byte(nil), data...)
	return nil
}

func (u *fakeUpstream) Delete(_ context.Context, hash datamap.Hash) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes++
	delete(u.chunks, hash)
	return nil
}

func (u *fakeUpstream) getCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.gets
}
