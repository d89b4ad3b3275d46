package blob_test

import (
	. "github.com/bbengfort/fluidblob/blob"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Kind", func() {

	It("should print its canonical name", func() {
		Ω(Public.String()).Should(Equal("Public"))
		Ω(Private.String()).Should(Equal("Private"))
	})

	It("should report Unknown for an undefined kind", func() {
		Ω(Kind(0xFE).String()).Should(Equal("Unknown"))
	})

})

var _ = Describe("Address", func() {

	It("should render as kind:hex-hash", func() {
		addr := NewPublic([]byte("payload")).Address()
		Ω(addr.String()).Should(MatchRegexp("^Public:[0-9a-f]{64}$"))
	})

	It("should consider two addresses equal only when both kind and hash match", func() {
		a := NewPublic([]byte("same payload")).Address()
		b := NewPublic([]byte("same payload")).Address()
		Ω(a.Equal(b)).Should(BeTrue())

		owner := PublicKey{1, 2, 3}
		c := NewPrivate([]byte("same payload"), owner).Address()
		Ω(a.Equal(c)).Should(BeFalse(), "a Public and Private address must never alias")
	})

	It("should round-trip through MarshalBinary/UnmarshalBinary", func() {
		addr := NewPrivate([]byte("payload"), PublicKey{9, 9, 9}).Address()

		encoded, err := addr.MarshalBinary()
		Ω(err).Should(BeNil())

		var decoded Address
		Ω(decoded.UnmarshalBinary(encoded)).Should(Succeed())
		Ω(decoded).Should(Equal(addr))
	})

	It("should parse a hex-encoded hash back into an Address", func() {
		addr := NewPublic([]byte("payload")).Address()

		parsed, err := ParseAddressHex(Public, addr.Hash.String())
		Ω(err).Should(BeNil())
		Ω(parsed).Should(Equal(addr))
	})

})
