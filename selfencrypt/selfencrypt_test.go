package selfencrypt_test

import (
	"context"
	"sync"

	"github.com/bbengfort/fluidblob/chunkstore"
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/ferrors"
	. "github.com/bbengfort/fluidblob/selfencrypt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// makeData returns a deterministic, non-repeating-enough byte sequence of
// length n, so chunk boundaries never coincide with a constant run.
func makeData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((i*31 + 7) % 256)
	}
	return data
}

// tamperableStore is a ChunkStore whose stored bytes can be corrupted or
// made to fail on demand, for exercising integrity-check and error paths
// Encrypt/Read/Delete alone can't reach through chunkstore.DryRunStore.
type tamperableStore struct {
	mu        sync.Mutex
	chunks    map[datamap.Hash][]byte
	deleteErr map[datamap.Hash]error
}

func newTamperableStore() *tamperableStore {
	return &tamperableStore{
		chunks:    make(map[datamap.Hash][]byte),
		deleteErr: make(map[datamap.Hash]error),
	}
}

func (s *tamperableStore) Get(_ context.Context, hash datamap.Hash) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.chunks[hash]
	if !ok {
		return nil, ferrors.Newf(ferrors.NotFound, "tamperableStore: %s not found", hash)
	}
	return data, nil
}

func (s *tamperableStore) Put(_ context.Context, hash datamap.Hash, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[hash] = cp
	return nil
}

func (s *tamperableStore) Delete(_ context.Context, hash datamap.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.deleteErr[hash]; ok {
		return err
	}
	delete(s.chunks, hash)
	return nil
}

func (s *tamperableStore) corrupt(hash datamap.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := s.chunks[hash]
	if len(raw) == 0 {
		return
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	cp[0] ^= 0xff
	s.chunks[hash] = cp
}

func (s *tamperableStore) failDelete(hash datamap.Hash, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr[hash] = err
}

var _ = Describe("Encrypt/Read", func() {

	var (
		store *tamperableStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = newTamperableStore()
		ctx = context.Background()
	})

	assertStaysContent := func(length int) {
		data := makeData(length)

		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())
		Ω(m.Kind).Should(Equal(datamap.KindContent))
		Ω(m.TotalSize()).Should(Equal(uint64(length)))

		got, err := Read(ctx, store, m, 0, m.TotalSize(), 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data))
	}

	It("should keep an empty input as a Content map", func() {
		assertStaysContent(0)
	})

	It("should keep a single byte as a Content map", func() {
		assertStaysContent(1)
	})

	It("should keep input one byte short of the chunking threshold as a Content map", func() {
		assertStaysContent(MinChunkSize*3 - 1)
	})

	assertChunked := func(length int) {
		data := makeData(length)

		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())
		Ω(m.Kind).Should(Equal(datamap.KindChunks))
		Ω(len(m.Chunks)).Should(BeNumerically(">=", 3))
		Ω(m.TotalSize()).Should(Equal(uint64(length)))

		var sum uint64
		for _, c := range m.Chunks {
			Ω(c.Size).Should(BeNumerically(">=", uint64(MinChunkSize)))
			Ω(c.Size).Should(BeNumerically("<=", uint64(MaxChunkSize)))
			sum += c.Size
		}
		Ω(sum).Should(Equal(uint64(length)))

		got, err := Read(ctx, store, m, 0, m.TotalSize(), 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data))
	}

	It("should chunk input exactly at the three-chunk threshold", func() {
		assertChunked(MinChunkSize * 3)
	})

	It("should chunk input exactly one max-size chunk long", func() {
		assertChunked(MaxChunkSize)
	})

	It("should chunk input one byte past a single max-size chunk", func() {
		assertChunked(MaxChunkSize + 1)
	})

	It("should chunk input exactly three max-size chunks long", func() {
		assertChunked(MaxChunkSize * 3)
	})

	It("should tolerate fan-out values larger than the chunk count", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 1000)
		Ω(err).Should(BeNil())

		got, err := Read(ctx, store, m, 0, m.TotalSize(), 1000)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data))
	})

	It("should serve a range that falls within a single chunk", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		got, err := Read(ctx, store, m, 10, 5, 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data[10:15]))
	})

	It("should serve a range spanning a chunk boundary", func() {
		data := makeData(MaxChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		boundary := m.Chunks[0].Size
		start := boundary - 100
		length := uint64(200)

		got, err := Read(ctx, store, m, start, length, 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data[start : start+length]))
	})

	It("should clip a request that begins past the end of the data", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		got, err := Read(ctx, store, m, m.TotalSize()+50, 10, 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal([]byte{}))
	})

	It("should clip a length that would run past the end of the data", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		got, err := Read(ctx, store, m, m.TotalSize()-10, 1000, 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data[m.TotalSize()-10:]))
	})

	It("should return an empty slice for the Empty data map", func() {
		got, err := Read(ctx, store, datamap.Empty(), 0, 10, 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal([]byte{}))
	})

	It("should detect a corrupted ciphertext chunk as an integrity failure", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		store.corrupt(m.Chunks[0].PostHash)

		_, err = Read(ctx, store, m, 0, m.TotalSize(), 0)
		Ω(ferrors.Is(err, ferrors.IntegrityFailure)).Should(BeTrue())
	})

	It("should surface a missing chunk as the store's own error", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		Ω(store.Delete(ctx, m.Chunks[1].PostHash)).Should(Succeed())

		_, err = Read(ctx, store, m, 0, m.TotalSize(), 0)
		Ω(ferrors.Is(err, ferrors.NotFound)).Should(BeTrue())
	})

})

var _ = Describe("Delete", func() {

	var (
		store *tamperableStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = newTamperableStore()
		ctx = context.Background()
	})

	It("should be a no-op for an Empty or Content data map", func() {
		Ω(Delete(ctx, store, datamap.Empty(), 0)).Should(Succeed())
		Ω(Delete(ctx, store, datamap.FromContent([]byte("small")), 0)).Should(Succeed())
	})

	It("should remove every chunk referenced by a Chunks data map", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		Ω(Delete(ctx, store, m, 0)).Should(Succeed())

		for _, c := range m.Chunks {
			_, err := store.Get(ctx, c.PostHash)
			Ω(ferrors.Is(err, ferrors.NotFound)).Should(BeTrue())
		}
	})

	It("should report a StorageFailure naming the chunks it could not delete", func() {
		data := makeData(MinChunkSize * 3)
		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		failing := m.Chunks[1].PostHash
		store.failDelete(failing, ferrors.New(ferrors.StorageFailure, "simulated delete failure"))

		err = Delete(ctx, store, m, 0)
		Ω(ferrors.Is(err, ferrors.StorageFailure)).Should(BeTrue())
		Ω(err.Error()).Should(ContainSubstring(failing.String()))
	})

})

var _ = Describe("chunkstore.DryRunStore integration", func() {

	It("should round-trip through the real Dry-run store used by pack previews", func() {
		store := chunkstore.NewDryRunStore()
		ctx := context.Background()
		data := makeData(MaxChunkSize + 1)

		m, err := Encrypt(ctx, store, data, 0)
		Ω(err).Should(BeNil())

		got, err := Read(ctx, store, m, 0, m.TotalSize(), 0)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(data))
	})

})
