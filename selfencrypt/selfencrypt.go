// Package selfencrypt implements the Chunker / Self-Encryptor of spec.md
// §4.1: convergent chunking and per-chunk key derivation, random-access
// reads against a DataMap, and chunk-set deletion. It holds no state
// across calls — each exported function takes the ChunkStore and fan-out
// it needs and is safe to call concurrently from independent callers, but
// a single in-flight operation's internal concurrency is its own (spec.md
// §5: "the Self-Encryptor holds per-operation state and is not shared").
package selfencrypt

import (
	"context"
	"sync"

	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
	"github.com/bbengfort/fluidblob/internal/xcrypto"
	"github.com/bbengfort/fluidblob/internal/xhash"
)

// Wire size constants, fixed by spec.md §6.
const (
	MinChunkSize = 1024
	MaxChunkSize = 1048576
)

// DefaultFanout is used whenever a caller passes a non-positive fan-out,
// matching the reference value of spec.md §5.
const DefaultFanout = 8

// Encrypt splits plaintext into a DataMap and stores every resulting
// ciphertext chunk through store, following the chunking policy and key
// derivation of spec.md §4.1. fanout bounds the number of in-flight Put
// calls; a non-positive value falls back to DefaultFanout.
func Encrypt(ctx context.Context, store chunkstore.ChunkStore, plaintext []byte, fanout int) (datamap.DataMap, error) {
	if len(plaintext) < MinChunkSize*3 {
		return datamap.FromContent(plaintext), nil
	}

	sizes := splitSizes(uint64(len(plaintext)))
	n := len(sizes)

	plainChunks := make([][]byte, n)
	preHashes := make([]datamap.Hash, n)

	offset := uint64(0)
	for i, size := range sizes {
		plainChunks[i] = plaintext[offset : offset+size]
		preHashes[i] = datamap.Sum(plainChunks[i])
		offset += size
	}

	descriptors := make([]datamap.ChunkDescriptor, n)
	err := forEachBounded(fanout, n, func(i int) error {
		prev1 := preHashes[neighbour(i, 1, n)]
		prev2 := preHashes[neighbour(i, 2, n)]

		chunkBytes, err := xcrypto.Encrypt(plainChunks[i], [xhash.Size]byte(preHashes[i]), [xhash.Size]byte(prev1), [xhash.Size]byte(prev2))
		if err != nil {
			return ferrors.Wrap(ferrors.IntegrityFailure, err, "selfencrypt: encrypt chunk")
		}

		postHash := datamap.Sum(chunkBytes)
		if err := store.Put(ctx, postHash, chunkBytes); err != nil {
			return err
		}

		descriptors[i] = datamap.ChunkDescriptor{
			PreHash:  preHashes[i],
			PostHash: postHash,
			Size:     sizes[i],
		}
		return nil
	})
	if err != nil {
		return datamap.DataMap{}, err
	}

	return datamap.FromChunks(descriptors), nil
}

// Read serves position..position+length from m, fetching and decrypting
// only the chunks that intersect the requested window (spec.md §4.1,
// "read with range"). Out-of-range requests are clipped to
// [0, total_size); a wholly out-of-range request yields an empty result.
func Read(ctx context.Context, store chunkstore.ChunkStore, m datamap.DataMap, position, length uint64, fanout int) ([]byte, error) {
	switch m.Kind {
	case datamap.KindEmpty:
		return []byte{}, nil

	case datamap.KindContent:
		start, end := clipRange(position, length, uint64(len(m.Content)))
		return append([]byte(nil), m.Content[start:end]...), nil

	case datamap.KindChunks:
		return readChunks(ctx, store, m.Chunks, position, length, fanout)

	default:
		return nil, ferrors.Newf(ferrors.IntegrityFailure, "selfencrypt: unknown data map kind %d", m.Kind)
	}
}

func readChunks(ctx context.Context, store chunkstore.ChunkStore, chunks []datamap.ChunkDescriptor, position, length uint64, fanout int) ([]byte, error) {
	n := len(chunks)

	offsets := make([]uint64, n+1)
	for i, c := range chunks {
		offsets[i+1] = offsets[i] + c.Size
	}
	total := offsets[n]

	start, end := clipRange(position, length, total)
	if start >= end {
		return []byte{}, nil
	}

	i0, i1 := 0, n-1
	for offsets[i0+1] <= start {
		i0++
	}
	for offsets[i1] >= end {
		i1--
	}

	covered := i1 - i0 + 1
	plaintexts := make([][]byte, covered)

	err := forEachBounded(fanout, covered, func(j int) error {
		idx := i0 + j
		desc := chunks[idx]

		prev1 := chunks[neighbour(idx, 1, n)].PreHash
		prev2 := chunks[neighbour(idx, 2, n)].PreHash

		raw, err := store.Get(ctx, desc.PostHash)
		if err != nil {
			return err
		}
		if datamap.Sum(raw) != desc.PostHash {
			return ferrors.Newf(ferrors.IntegrityFailure, "selfencrypt: chunk %s failed integrity check", desc.PostHash)
		}

		plain, err := xcrypto.Decrypt(raw, [xhash.Size]byte(desc.PreHash), [xhash.Size]byte(prev1), [xhash.Size]byte(prev2))
		if err != nil {
			return ferrors.Wrap(ferrors.IntegrityFailure, err, "selfencrypt: decrypt chunk")
		}
		if datamap.Sum(plain) != desc.PreHash {
			return ferrors.Newf(ferrors.IntegrityFailure, "selfencrypt: chunk %s plaintext failed integrity check", desc.PostHash)
		}

		plaintexts[j] = plain
		return nil
	})
	if err != nil {
		return nil, err
	}

	assembled := make([]byte, 0, end-start)
	for j, plain := range plaintexts {
		idx := i0 + j
		chunkStart := offsets[idx]
		chunkEnd := offsets[idx+1]

		sliceStart := uint64(0)
		if start > chunkStart {
			sliceStart = start - chunkStart
		}
		sliceEnd := uint64(len(plain))
		if end < chunkEnd {
			sliceEnd = uint64(len(plain)) - (chunkEnd - end)
		}
		assembled = append(assembled, plain[sliceStart:sliceEnd]...)
	}

	return assembled, nil
}

// Delete removes every chunk referenced by m from store. It reports
// success only if every delete succeeds; partial failure is surfaced as a
// StorageFailure naming the chunks that could not be removed (spec.md
// §4.1).
func Delete(ctx context.Context, store chunkstore.ChunkStore, m datamap.DataMap, fanout int) error {
	if m.Kind != datamap.KindChunks {
		return nil
	}

	n := len(m.Chunks)
	failures := make([]datamap.Hash, n)
	var failedCount int32

	err := forEachBounded(fanout, n, func(i int) error {
		if delErr := store.Delete(ctx, m.Chunks[i].PostHash); delErr != nil {
			failures[i] = m.Chunks[i].PostHash
			return nil // collected below; keep going for the remaining chunks
		}
		return nil
	})
	if err != nil {
		return err
	}

	var failedHashes []datamap.Hash
	for _, h := range failures {
		if !h.IsZero() {
			failedHashes = append(failedHashes, h)
			failedCount++
		}
	}
	if failedCount > 0 {
		return ferrors.Newf(ferrors.StorageFailure, "selfencrypt: failed to delete %d of %d chunks: %v", failedCount, n, failedHashes)
	}
	return nil
}

// clipRange narrows [position, position+length) to [0, total), following
// spec.md §4.1's "out-of-range reads are clipped" rule.
func clipRange(position, length, total uint64) (start, end uint64) {
	if position >= total {
		return total, total
	}
	start = position
	end = position + length
	if end > total || end < start { // guard a length large enough to overflow
		end = total
	}
	return start, end
}

// neighbour returns the index (i-k) mod n, per spec.md §4.1's neighbour
// pre-hash derivation.
func neighbour(i, k, n int) int {
	return ((i-k)%n + n) % n
}

// forEachBounded runs fn(0..n) concurrently, at most fanout in flight at
// once, and returns the first error encountered (if any), modeled on the
// goroutine/WaitGroup fan-out used by tree chunkers to bound concurrent
// chunk I/O.
func forEachBounded(fanout, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	if fanout > n {
		fanout = n
	}

	sem := make(chan struct{}, fanout)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// splitSizes divides total bytes into n >= 3 chunk sizes, targeting
// MaxChunkSize per chunk and distributing the remainder across the
// leading chunks so that every chunk, including the last two, falls in
// [MinChunkSize, MaxChunkSize] whenever total >= 3*MinChunkSize (spec.md
// §4.1, invariant P5). Because n is the smallest chunk count that keeps
// every chunk at or under MaxChunkSize (or 3 when total is smaller), the
// even split never needs a separate tail-redistribution pass: every chunk
// is total/n or one byte more, the remainder adding one byte to each of
// the first chunks, and total/n is at least MinChunkSize given the
// precondition on total.
func splitSizes(total uint64) []uint64 {
	n := total / MaxChunkSize
	if total%MaxChunkSize != 0 {
		n++
	}
	if n < 3 {
		n = 3
	}

	base := total / n
	rem := total % n

	sizes := make([]uint64, n)
	for i := range sizes {
		sizes[i] = base
		if uint64(i) < rem {
			sizes[i]++
		}
	}
	return sizes
}
