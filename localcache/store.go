package localcache

import (
	"context"

	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/flog"
)

// Store decorates an upstream chunkstore.ChunkStore with a local,
// content-hash-keyed cache: reads are served from cache when present and
// backfilled on a miss; writes and deletes go to the upstream first and
// are then mirrored into the cache on a best-effort basis, since the
// cache is only ever a performance optimization and must never be the
// system of record for a chunk's existence.
type Store struct {
	cache    Database
	upstream chunkstore.ChunkStore
	log      *flog.Logger
}

// NewStore wraps upstream with a read-through cache.
func NewStore(cache Database, upstream chunkstore.ChunkStore, log *flog.Logger) *Store {
	if log == nil {
		log = flog.NewNop()
	}
	return &Store{cache: cache, upstream: upstream, log: log}
}

// Get serves hash from cache when present, otherwise fetches it from
// upstream and backfills the cache.
func (s *Store) Get(ctx context.Context, hash datamap.Hash) ([]byte, error) {
	if cached, err := s.cache.Get(hash[:]); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.Warn("localcache: read failed, falling back to upstream", "hash", hash.String(), "error", err)
	}

	data, err := s.upstream.Get(ctx, hash)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(hash[:], data); err != nil {
		s.log.Warn("localcache: backfill failed", "hash", hash.String(), "error", err)
	}

	return data, nil
}

// Put writes data to upstream, then mirrors it into the cache.
func (s *Store) Put(ctx context.Context, hash datamap.Hash, data []byte) error {
	if err := s.upstream.Put(ctx, hash, data); err != nil {
		return err
	}
	if err := s.cache.Put(hash[:], data); err != nil {
		s.log.Warn("localcache: mirror failed", "hash", hash.String(), "error", err)
	}
	return nil
}

// Delete removes hash from upstream, then evicts it from the cache.
func (s *Store) Delete(ctx context.Context, hash datamap.Hash) error {
	if err := s.upstream.Delete(ctx, hash); err != nil {
		return err
	}
	if err := s.cache.Delete(hash[:]); err != nil {
		s.log.Warn("localcache: eviction failed", "hash", hash.String(), "error", err)
	}
	return nil
}
