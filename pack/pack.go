// Package pack implements the Data-Map Packer of spec.md §4.3: it turns a
// root DataMap into a single network-storable Blob by transparently
// introducing additional self-encryption levels whenever a serialised
// DataMap would exceed MAX_BLOB_BYTES, and reverses the process on read
// and delete.
package pack

import (
	"context"

	"github.com/bbengfort/fluidblob/blob"
	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
	"github.com/bbengfort/fluidblob/selfencrypt"
)

// DefaultMaxLevels bounds the Root->Child->Child->... recursion that
// spec.md §9 leaves unbounded in principle. A chain this long would
// require payloads many orders of magnitude larger than any blob either
// side of this library can produce, so hitting the bound always indicates
// a corrupt or adversarial data map rather than a legitimately large one.
const DefaultMaxLevels = 8

// Pack runs the store-direction algorithm of spec.md §4.3: it serialises
// rootMap as DataMapLevel::Root, and while the resulting candidate Blob
// exceeds blob.MaxBlobBytes, self-encrypts the oversized blob's own bytes
// into a new DataMap wrapped as DataMapLevel::Child, repeating until a
// candidate blob fits. The returned Blob is not itself stored — its
// address is computed purely; the caller stores it with one PutBlob call.
func Pack(ctx context.Context, store chunkstore.ChunkStore, rootMap datamap.DataMap, kind blob.Kind, owner blob.PublicKey, fanout, maxLevels int) (blob.Blob, error) {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}

	level := datamap.Root(rootMap)

	for levels := 0; ; levels++ {
		payload, err := level.MarshalBinary()
		if err != nil {
			return blob.Blob{}, ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: marshal data map level")
		}

		candidate := blob.Blob{Kind: kind, Payload: payload, Owner: owner}
		if candidate.Valid() {
			return candidate, nil
		}

		if levels >= maxLevels {
			return blob.Blob{}, ferrors.Newf(ferrors.IntegrityFailure, "pack: exceeded maximum of %d data-map levels", maxLevels)
		}

		serialisedBlob, err := candidate.MarshalBinary()
		if err != nil {
			return blob.Blob{}, ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: marshal oversized blob")
		}

		m, err := selfencrypt.Encrypt(ctx, store, serialisedBlob, fanout)
		if err != nil {
			return blob.Blob{}, err
		}

		level = datamap.Child(m)
	}
}

// Unpack runs the read-direction algorithm of spec.md §4.3: fetch the
// blob at address, then repeatedly peel Child levels — reconstructing
// each level's bytes through the self-encryptor — until the Root level is
// reached, returning its DataMap.
func Unpack(ctx context.Context, store chunkstore.ChunkStore, net chunkstore.NetworkClient, address blob.Address, fanout, maxLevels int) (datamap.DataMap, error) {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}

	b, err := net.GetBlob(ctx, address)
	if err != nil {
		return datamap.DataMap{}, err
	}
	if b.Kind != address.Kind {
		return datamap.DataMap{}, ferrors.Newf(ferrors.NotFound, "pack: %s holds no blob of the requested kind", address)
	}

	for levels := 0; ; levels++ {
		var level datamap.DataMapLevel
		if err := level.UnmarshalBinary(b.Payload); err != nil {
			return datamap.DataMap{}, ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: unmarshal data map level")
		}

		if level.IsRoot() {
			return level.Map, nil
		}

		if levels >= maxLevels {
			return datamap.DataMap{}, ferrors.Newf(ferrors.IntegrityFailure, "pack: exceeded maximum of %d unpack levels", maxLevels)
		}

		serialised, err := selfencrypt.Read(ctx, store, level.Map, 0, level.Map.TotalSize(), fanout)
		if err != nil {
			return datamap.DataMap{}, err
		}

		if err := b.UnmarshalBinary(serialised); err != nil {
			return datamap.DataMap{}, ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: unmarshal reassembled blob")
		}
	}
}

// Delete runs the delete-direction algorithm of spec.md §4.3 (private
// blobs only — callers are responsible for rejecting Public addresses
// with Forbidden before calling Delete): remove the outermost blob from
// the network, then walk every Child level, deleting its referenced
// chunks as each level is reassembled, finishing by deleting the Root
// level's chunks.
func Delete(ctx context.Context, store chunkstore.ChunkStore, net chunkstore.NetworkClient, address blob.Address, fanout, maxLevels int) error {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}

	b, err := net.GetBlob(ctx, address)
	if err != nil {
		return err
	}
	if b.Kind != address.Kind {
		return ferrors.Newf(ferrors.NotFound, "pack: %s holds no blob of the requested kind", address)
	}

	if err := net.DeleteBlob(ctx, address); err != nil && !ferrors.Is(err, ferrors.NotFound) {
		return err
	}

	for levels := 0; ; levels++ {
		var level datamap.DataMapLevel
		if err := level.UnmarshalBinary(b.Payload); err != nil {
			return ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: unmarshal data map level")
		}

		if level.IsRoot() {
			return selfencrypt.Delete(ctx, store, level.Map, fanout)
		}

		if levels >= maxLevels {
			return ferrors.Newf(ferrors.IntegrityFailure, "pack: exceeded maximum of %d unpack levels", maxLevels)
		}

		reassembled, err := selfencrypt.Read(ctx, store, level.Map, 0, level.Map.TotalSize(), fanout)
		if err != nil {
			return err
		}

		if err := selfencrypt.Delete(ctx, store, level.Map, fanout); err != nil {
			return err
		}

		if err := b.UnmarshalBinary(reassembled); err != nil {
			return ferrors.Wrap(ferrors.IntegrityFailure, err, "pack: unmarshal reassembled blob")
		}
	}
}
