package localcache_test

import (
	"os"
	"path/filepath"

	. "github.com/bbengfort/fluidblob/localcache"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Open", func() {

	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "fluidblob-localcache-*")
		Ω(err).Should(BeNil())
	})

	AfterEach(func() {
		Ω(os.RemoveAll(dir)).Should(Succeed())
	})

	It("should reject an unknown driver name", func() {
		_, err := Open("not-a-real-driver", filepath.Join(dir, "db"))
		Ω(err).ShouldNot(BeNil())
	})

	assertRoundTrips := func(driver string) {
		db, err := Open(driver, filepath.Join(dir, driver))
		Ω(err).Should(BeNil())
		defer db.Close()

		key, value := []byte("a-chunk-hash"), []byte("ciphertext bytes")

		missing, err := db.Get(key)
		Ω(err).Should(BeNil())
		Ω(missing).Should(BeNil())

		Ω(db.Put(key, value)).Should(Succeed())

		got, err := db.Get(key)
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal(value))

		Ω(db.Delete(key)).Should(Succeed())

		gone, err := db.Get(key)
		Ω(err).Should(BeNil())
		Ω(gone).Should(BeNil())
	}

	It("should round-trip a key through the BoltDB driver", func() {
		assertRoundTrips(BoltDBDriver)
	})

	It("should round-trip a key through the LevelDB driver", func() {
		assertRoundTrips(LevelDBDriver)
	})

	It("should survive closing and reopening the same BoltDB file", func() {
		path := filepath.Join(dir, "reopen.bolt")

		db, err := Open(BoltDBDriver, path)
		Ω(err).Should(BeNil())
		Ω(db.Put([]byte("k"), []byte("v"))).Should(Succeed())
		Ω(db.Close()).Should(Succeed())

		reopened, err := Open(BoltDBDriver, path)
		Ω(err).Should(BeNil())
		defer reopened.Close()

		got, err := reopened.Get([]byte("k"))
		Ω(err).Should(BeNil())
		Ω(got).Should(Equal([]byte("v")))
	})

})
