// Package client implements the Blob Client Facade of spec.md §4.5: the
// five public operations a higher layer calls (store_public_blob,
// store_private_blob, read_blob, delete_blob, blob_data_map), composed
// from package selfencrypt, package pack, and package chunkstore.
package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/bbengfort/fluidblob/blob"
	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
	"github.com/bbengfort/fluidblob/internal/flog"
	"github.com/bbengfort/fluidblob/pack"
	"github.com/bbengfort/fluidblob/selfencrypt"
)

// Accounting is the account-balance collaborator charged on writes and
// private deletes (spec.md §4.5, "Observable side effects: ... account-
// balance decreases on writes and private deletes"). It is the same seam
// package chunkstore charges per constituent chunk; Client charges it
// once more for the single outermost blob object a Pack/Delete operation
// produces or removes.
type Accounting = chunkstore.Accounting

// Range names an optional read window for ReadBlob. A nil *Range reads
// the blob in its entirety.
type Range struct {
	Position uint64
	Length   uint64
}

// Client is the Blob Client Facade. It holds no per-call state; every
// public method builds a chunkstore.ChunkStore scoped to the call's own
// blob kind and owner, per spec.md §5 ("the Self-Encryptor holds
// per-operation state and is not shared").
type Client struct {
	net        chunkstore.NetworkClient
	accounting Accounting
	config     Config
	log        *flog.Logger
}

// New builds a Client. accounting may be nil to disable charging
// entirely (e.g. in tests or a dry-run-only caller).
func New(net chunkstore.NetworkClient, accounting Accounting, config Config, log *flog.Logger) (*Client, error) {
	if net == nil {
		return nil, ferrors.New(ferrors.StorageFailure, "client: a network client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = flog.NewNop()
	}
	return &Client{net: net, accounting: accounting, config: config, log: log}, nil
}

func (c *Client) storeFor(kind blob.Kind, owner blob.PublicKey) *chunkstore.NetworkStore {
	return chunkstore.NewNetworkStore(c.net, kind, owner, c.accounting, c.log, c.config.ChunkTimeout)
}

// deleteAccounting wraps c.accounting so a single gate, Config.
// DeleteChargeRate, decides whether every ChargeDelete call underneath a
// delete_blob operation is actually charged — the outermost blob's own
// charge below and every constituent chunk's charge inside the
// chunkstore.NetworkStore pack.Delete walks (chunkstore.go's Delete calls
// ChargeDelete per chunk with no amount to scale). A rate of zero (or
// less) must disable delete charging entirely, not just the outermost
// blob's share of it, so both call sites are routed through the same
// wrapper rather than gated independently.
func (c *Client) deleteAccounting() Accounting {
	if c.accounting == nil {
		return nil
	}
	return deleteGate{Accounting: c.accounting, enabled: c.config.DeleteChargeRate > 0}
}

// deleteGate forwards ChargeWrite unchanged and only forwards ChargeDelete
// when enabled, so Config.DeleteChargeRate <= 0 suppresses every delete
// charge reachable through it.
type deleteGate struct {
	Accounting
	enabled bool
}

func (g deleteGate) ChargeDelete(ctx context.Context) error {
	if !g.enabled {
		return nil
	}
	return g.Accounting.ChargeDelete(ctx)
}

// requestID tags one facade call's log lines so they can be correlated
// across the chunk-level traffic it fans out underneath, the way the
// teacher tags mount points and web sessions with a uuid.UUID.
func requestID() string {
	return uuid.New().String()
}

// StorePublicBlob runs selfencrypt.Encrypt then pack.Pack over data and
// persists the outermost blob, returning its Public BlobAddress (spec.md
// §4.5). Repeated stores of identical data are address-stable (Invariant
// I1) and idempotent at the chunk layer.
func (c *Client) StorePublicBlob(ctx context.Context, data []byte) (blob.Address, error) {
	return c.storeBlob(ctx, data, blob.Public, blob.PublicKey{})
}

// StorePrivateBlob is StorePublicBlob bound to owner, producing a Private
// BlobAddress (spec.md §4.5).
func (c *Client) StorePrivateBlob(ctx context.Context, data []byte, owner blob.PublicKey) (blob.Address, error) {
	return c.storeBlob(ctx, data, blob.Private, owner)
}

func (c *Client) storeBlob(ctx context.Context, data []byte, kind blob.Kind, owner blob.PublicKey) (blob.Address, error) {
	reqID := requestID()
	store := c.storeFor(kind, owner)

	rootMap, err := selfencrypt.Encrypt(ctx, store, data, c.config.ChunkFanout)
	if err != nil {
		return blob.Address{}, err
	}

	outermost, err := pack.Pack(ctx, store, rootMap, kind, owner, c.config.ChunkFanout, c.config.MaxDataMapLevels)
	if err != nil {
		return blob.Address{}, err
	}

	if err := c.net.PutBlob(ctx, outermost); err != nil {
		return blob.Address{}, ferrors.Wrap(ferrors.StorageFailure, err, "client: store outermost blob")
	}
	if c.accounting != nil {
		if err := c.accounting.ChargeWrite(ctx, len(outermost.Payload)); err != nil {
			return blob.Address{}, err
		}
	}

	address := outermost.Address()
	c.log.Debug("stored blob", "request", reqID, "address", address.String(), "bytes", len(data))
	return address, nil
}

// ReadBlob runs pack.Unpack then selfencrypt.Read to recover window (or
// the whole blob, if window is nil) of the data addressed by address
// (spec.md §4.5). Out-of-range windows are clipped, never an error.
func (c *Client) ReadBlob(ctx context.Context, address blob.Address, window *Range) ([]byte, error) {
	reqID := requestID()
	store := c.storeFor(address.Kind, blob.PublicKey{})

	rootMap, err := pack.Unpack(ctx, store, c.net, address, c.config.ChunkFanout, c.config.MaxDataMapLevels)
	if err != nil {
		return nil, err
	}

	position, length := uint64(0), rootMap.TotalSize()
	if window != nil {
		position, length = window.Position, window.Length
	}

	data, err := selfencrypt.Read(ctx, store, rootMap, position, length, c.config.ChunkFanout)
	if err != nil {
		return nil, err
	}

	c.log.Debug("read blob", "request", reqID, "address", address.String(), "bytes", len(data))
	return data, nil
}

// DeleteBlob runs pack.Delete over address (spec.md §4.5). Only Private
// addresses may be deleted; deleting a Public address fails with
// Forbidden, per spec.md §3 ("Public blobs are append-only").
func (c *Client) DeleteBlob(ctx context.Context, address blob.Address) error {
	if address.Kind != blob.Private {
		return ferrors.Newf(ferrors.Forbidden, "client: cannot delete Public blob %s", address)
	}

	reqID := requestID()
	acct := c.deleteAccounting()
	store := chunkstore.NewNetworkStore(c.net, address.Kind, blob.PublicKey{}, acct, c.log, c.config.ChunkTimeout)

	if err := pack.Delete(ctx, store, c.net, address, c.config.ChunkFanout, c.config.MaxDataMapLevels); err != nil {
		return err
	}

	if acct != nil {
		if err := acct.ChargeDelete(ctx); err != nil {
			return err
		}
	}

	c.log.Debug("deleted blob", "request", reqID, "address", address.String())
	return nil
}

// BlobDataMap is the pure, local-only preview entry point of spec.md §4.5
// (blob_data_map): it never calls the network and never returns
// NotFound. A nil owner previews a Public blob; a non-nil owner previews
// a Private blob bound to that owner.
func (c *Client) BlobDataMap(ctx context.Context, data []byte, owner *blob.PublicKey) (datamap.DataMap, blob.Address, error) {
	kind := blob.Public
	var ownerKey blob.PublicKey
	if owner != nil {
		kind = blob.Private
		ownerKey = *owner
	}
	return pack.BlobDataMap(ctx, data, kind, ownerKey, c.config.ChunkFanout, c.config.MaxDataMapLevels)
}
