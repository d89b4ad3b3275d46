package ferrors_test

import (
	"errors"

	. "github.com/bbengfort/fluidblob/internal/ferrors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {

	It("should format an unwrapped error with its kind and message", func() {
		err := New(NotFound, "chunk missing")
		Ω(err.Error()).Should(Equal("NotFound: chunk missing"))
	})

	It("should format a message with arguments", func() {
		err := Newf(StorageFailure, "failed after %d attempts", 3)
		Ω(err.Error()).Should(Equal("StorageFailure: failed after 3 attempts"))
	})

	It("should include the wrapped cause in its message", func() {
		cause := errors.New("disk full")
		err := Wrap(IntegrityFailure, cause, "could not persist chunk")
		Ω(err.Error()).Should(Equal("IntegrityFailure: could not persist chunk: disk full"))
	})

	It("should behave like New when Wrap is given a nil cause", func() {
		err := Wrap(Forbidden, nil, "no cause here")
		Ω(err.Error()).Should(Equal("Forbidden: no cause here"))
	})

	It("should support Wrapf with format arguments", func() {
		cause := errors.New("timeout")
		err := Wrapf(SizeExceeded, cause, "chunk %s too large", "abcd")
		Ω(err.Error()).Should(Equal("SizeExceeded: chunk abcd too large: timeout"))
	})

	Describe("Is and KindOf", func() {

		It("should identify the kind of a pipeline error", func() {
			err := New(PaymentFailure, "insufficient balance")

			kind, ok := KindOf(err)
			Ω(ok).Should(BeTrue())
			Ω(kind).Should(Equal(PaymentFailure))

			Ω(Is(err, PaymentFailure)).Should(BeTrue())
			Ω(Is(err, NotFound)).Should(BeFalse())
		})

		It("should see through a wrapped cause chain", func() {
			cause := errors.New("underlying")
			err := Wrap(StorageFailure, cause, "store failed")

			Ω(Is(err, StorageFailure)).Should(BeTrue())
		})

		It("should report false for a plain standard library error", func() {
			err := errors.New("not a pipeline error")

			_, ok := KindOf(err)
			Ω(ok).Should(BeFalse())
			Ω(Is(err, NotFound)).Should(BeFalse())
		})

	})

	Describe("Kind.String", func() {

		It("should name every defined kind", func() {
			names := map[Kind]string{
				NotFound:         "NotFound",
				IntegrityFailure: "IntegrityFailure",
				StorageFailure:   "StorageFailure",
				Forbidden:        "Forbidden",
				SizeExceeded:     "SizeExceeded",
				PaymentFailure:   "PaymentFailure",
			}
			for kind, name := range names {
				Ω(kind.String()).Should(Equal(name))
			}
		})

		It("should report Unknown for an out-of-range kind", func() {
			Ω(Kind(99).String()).Should(Equal("Unknown"))
		})

	})

})
