// Package chunkstore implements the Chunk Store Adapter of spec.md §4.2:
// a hash-keyed get/put/delete contract in front of the network, with a
// Live implementation that forwards through an external RPC collaborator
// and charges an account, and a Dry-run implementation that never leaves
// memory.
//
// Chunks are addressed on the wire as Address{Kind: <owning blob's kind>,
// Hash: post_hash}: post_hash is always H(ciphertext) alone (spec.md §4.1
// step 5), independent of any owner. A chunk's wire Blob is therefore
// always stored with a zero-value Owner, so blob.Blob.Address() falls back
// to its content-hash-only formula even when Kind is Private — see the
// comment on Address() for why binding owner into a chunk's hash would
// break convergent deduplication. Kind alone still carries the owning
// blob's deletability (Private chunks deletable, Public chunks permanent).
// The owner-binding derivation is reserved for the single outermost blob a
// Pack operation returns to its caller; constituent chunks are never
// independently addressed by third parties, only fetched by position from
// a DataMap the owner already holds.
package chunkstore

import (
	"context"
	"sync"
	"time"

	"github.com/bbengfort/fluidblob/blob"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
	"github.com/bbengfort/fluidblob/internal/flog"
)

// ChunkStore is the contract of spec.md §4.2: get(hash), put(hash,bytes),
// delete(hash). Implementations must be safe for concurrent use (spec.md
// §5, "the Chunk Store Adapter is shared").
type ChunkStore interface {
	Get(ctx context.Context, hash datamap.Hash) ([]byte, error)
	Put(ctx context.Context, hash datamap.Hash, data []byte) error
	Delete(ctx context.Context, hash datamap.Hash) error
}

// NetworkClient is the external RPC collaborator consumed by a Live
// ChunkStore (and, at the outer blob level, by package pack) — spec.md §6:
// "GetBlob(addr) -> Blob | NotFound, PutBlob(blob) -> Ok | Full |
// Unauthorised, DeleteBlob(addr) -> Ok | NotFound | Unauthorised. These
// are the only external requests the core issues."
type NetworkClient interface {
	GetBlob(ctx context.Context, addr blob.Address) (blob.Blob, error)
	PutBlob(ctx context.Context, b blob.Blob) error
	DeleteBlob(ctx context.Context, addr blob.Address) error
}

// Sentinel errors a NetworkClient implementation returns to report the
// RPC-level outcomes of spec.md §6 that are not plain success.
var (
	ErrNotFound     = ferrors.New(ferrors.NotFound, "chunkstore: not found")
	ErrFull         = ferrors.New(ferrors.StorageFailure, "chunkstore: store full")
	ErrUnauthorised = ferrors.New(ferrors.Forbidden, "chunkstore: unauthorised")
)

// Accounting is the external collaborator charged on writes and deletes
// (spec.md §4.2, "Live: ... charging the account on writes and deletes").
// The payment subsystem itself is out of scope (spec.md §1 Non-goals);
// this is only the seam a caller's implementation plugs into.
type Accounting interface {
	ChargeWrite(ctx context.Context, bytes int) error
	ChargeDelete(ctx context.Context) error
}

// NetworkStore is the Live Chunk Store Adapter: every call forwards
// through a NetworkClient, scoped to one blob kind, since a single
// self-encryption operation always concerns one blob context (spec.md §5,
// "the Self-Encryptor holds per-operation state and is not shared"). The
// owner it is built with is recorded but never bound into a chunk's
// address or wire Blob (see the package comment).
type NetworkStore struct {
	client     NetworkClient
	kind       blob.Kind
	owner      blob.PublicKey
	accounting Accounting
	log        *flog.Logger
	timeout    time.Duration
}

// NewNetworkStore builds a Live ChunkStore bound to kind/owner. accounting
// may be nil, in which case writes and deletes are not charged (used by
// tests and by blob_data_map's dry-run path, which never reaches here).
// timeout bounds each individual RPC (spec.md §5, "each external RPC
// carries a deadline, reference 120s per chunk operation"); zero disables
// the deadline.
func NewNetworkStore(client NetworkClient, kind blob.Kind, owner blob.PublicKey, accounting Accounting, log *flog.Logger, timeout time.Duration) *NetworkStore {
	if log == nil {
		log = flog.NewNop()
	}
	return &NetworkStore{client: client, kind: kind, owner: owner, accounting: accounting, log: log, timeout: timeout}
}

func (s *NetworkStore) addr(hash datamap.Hash) blob.Address {
	return blob.Address{Kind: s.kind, Hash: hash}
}

// withDeadline bounds ctx by s.timeout, if set, and turns its expiry into
// a StorageFailure rather than a bare context error (spec.md §5: "on
// expiry the operation fails with StorageFailure(Timeout); the facade
// does not retry at this layer").
func (s *NetworkStore) withDeadline(ctx context.Context, op func(context.Context) error) error {
	if s.timeout <= 0 {
		return op(ctx)
	}
	deadlined, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := op(deadlined); err != nil {
		if deadlined.Err() == context.DeadlineExceeded {
			return ferrors.Wrap(ferrors.StorageFailure, deadlined.Err(), "chunkstore: operation timed out")
		}
		return err
	}
	return nil
}

// Get fetches and unwraps the chunk at hash.
func (s *NetworkStore) Get(ctx context.Context, hash datamap.Hash) ([]byte, error) {
	var result []byte
	err := s.withDeadline(ctx, func(ctx context.Context) error {
		b, err := s.client.GetBlob(ctx, s.addr(hash))
		if err != nil {
			if _, ok := ferrors.KindOf(err); ok {
				return err
			}
			return ferrors.Wrapf(ferrors.StorageFailure, err, "chunkstore: get %s", hash)
		}
		result = b.Payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Put stores data at hash. Storing identical bytes twice is a no-op and
// must not fail (spec.md §4.2); this relies on the network's own
// content-addressed deduplication accepting a repeated PutBlob, so Put
// always issues the RPC and returns any error the client reports.
func (s *NetworkStore) Put(ctx context.Context, hash datamap.Hash, data []byte) error {
	err := s.withDeadline(ctx, func(ctx context.Context) error {
		b := blob.Blob{Kind: s.kind, Payload: data}
		if err := s.client.PutBlob(ctx, b); err != nil {
			if _, ok := ferrors.KindOf(err); ok {
				return err
			}
			return ferrors.Wrapf(ferrors.StorageFailure, err, "chunkstore: put %s", hash)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.accounting != nil {
		return s.accounting.ChargeWrite(ctx, len(data))
	}
	return nil
}

// Delete removes the chunk at hash. Deleting a non-existent chunk is a
// no-op (spec.md §4.2).
func (s *NetworkStore) Delete(ctx context.Context, hash datamap.Hash) error {
	err := s.withDeadline(ctx, func(ctx context.Context) error {
		err := s.client.DeleteBlob(ctx, s.addr(hash))
		if err != nil && !ferrors.Is(err, ferrors.NotFound) {
			return ferrors.Wrapf(ferrors.StorageFailure, err, "chunkstore: delete %s", hash)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.accounting != nil {
		return s.accounting.ChargeDelete(ctx)
	}
	return nil
}

// DryRunStore is the in-memory Chunk Store Adapter of spec.md §4.2: it
// never leaves the process, so pack.BlobDataMap can learn an address's
// deterministic value without incurring network cost or charges.
type DryRunStore struct {
	mu     sync.Mutex
	chunks map[datamap.Hash][]byte
}

// NewDryRunStore returns an empty Dry-run store.
func NewDryRunStore() *DryRunStore {
	return &DryRunStore{chunks: make(map[datamap.Hash][]byte)}
}

// Get returns a previously Put chunk, or NotFound.
func (s *DryRunStore) Get(_ context.Context, hash datamap.Hash) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.chunks[hash]
	if !ok {
		return nil, ferrors.Newf(ferrors.NotFound, "chunkstore: dry-run %s not found", hash)
	}
	return data, nil
}

// Put records data under hash, copying it so later mutation by the
// caller cannot corrupt the store.
func (s *DryRunStore) Put(_ context.Context, hash datamap.Hash, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[hash] = cp
	return nil
}

// Delete discards the chunk at hash, if present.
func (s *DryRunStore) Delete(_ context.Context, hash datamap.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, hash)
	return nil
}
