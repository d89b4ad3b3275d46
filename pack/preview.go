package pack

import (
	"context"

	"github.com/bbengfort/fluidblob/blob"
	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/selfencrypt"
)

// BlobDataMap is the pure preview entry point of spec.md §4.4
// (blob_data_map): it self-encrypts data and runs the Pack loop against a
// throwaway Dry-run chunk store, discarding every accumulated chunk, so a
// caller can learn a blob's deterministic root DataMap and address
// without touching the network. It lives in package pack rather than
// package blob because it needs Pack's own recursive levelling logic, and
// blob must not import pack (pack already imports blob for the Kind/
// Address/Blob types).
func BlobDataMap(ctx context.Context, data []byte, kind blob.Kind, owner blob.PublicKey, fanout, maxLevels int) (datamap.DataMap, blob.Address, error) {
	dryRun := chunkstore.NewDryRunStore()

	rootMap, err := selfencrypt.Encrypt(ctx, dryRun, data, fanout)
	if err != nil {
		return datamap.DataMap{}, blob.Address{}, err
	}

	outermost, err := Pack(ctx, dryRun, rootMap, kind, owner, fanout, maxLevels)
	if err != nil {
		return datamap.DataMap{}, blob.Address{}, err
	}

	return rootMap, outermost.Address(), nil
}
