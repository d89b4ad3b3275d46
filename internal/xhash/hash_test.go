package xhash_test

import (
	. "github.com/bbengfort/fluidblob/internal/xhash"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sum", func() {

	It("should be deterministic for identical input", func() {
		data := []byte("the eagle flies at midnight")
		Ω(Sum(data)).Should(Equal(Sum(data)))
	})

	It("should produce 32 bytes of output", func() {
		sum := Sum([]byte("anything"))
		Ω(sum).Should(HaveLen(Size))
	})

	It("should differ for different input", func() {
		Ω(Sum([]byte("a"))).ShouldNot(Equal(Sum([]byte("b"))))
	})

	It("should hash the empty input to a fixed, non-zero value", func() {
		sum := Sum(nil)
		Ω(sum).Should(HaveLen(Size))
		Ω(sum).ShouldNot(Equal([Size]byte{}))
	})

})

var _ = Describe("KeyedSum", func() {

	It("should be deterministic for identical key and data", func() {
		key := []byte("seed material")
		data := []byte("payload")

		a, err := KeyedSum(key, data)
		Ω(err).Should(BeNil())

		b, err := KeyedSum(key, data)
		Ω(err).Should(BeNil())

		Ω(a).Should(Equal(b))
	})

	It("should differ when the key changes but data does not", func() {
		data := []byte("payload")

		a, err := KeyedSum([]byte("key-one"), data)
		Ω(err).Should(BeNil())

		b, err := KeyedSum([]byte("key-two"), data)
		Ω(err).Should(BeNil())

		Ω(a).ShouldNot(Equal(b))
	})

	It("should differ from the unkeyed Sum of the same data", func() {
		data := []byte("payload")

		keyed, err := KeyedSum([]byte("a key"), data)
		Ω(err).Should(BeNil())

		Ω(keyed).ShouldNot(Equal(Sum(data)))
	})

})
