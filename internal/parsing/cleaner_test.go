package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CleanDescription", func() {
	DescribeTable("noise removal",
		func(input, expected string) {
			Expect(CleanDescription(input)).To(Equal(expected))
		},
		Entry("terminal code", "Albert Heijn 1234,PAS011", "Albert Heijn 1234"),
		Entry("BEA prefix", "BEA, Jumbo Utrecht", "Jumbo Utrecht"),
		Entry("trailing comma", "Bakkerij de Vries ,", "Bakkerij de Vries"),
		Entry("lowercase code", "Kiosk,pas123", "Kiosk"),
		Entry("SAPN with Google Pay", "BEA, Google Pay SAPN,PAS011", "Google Pay SAPN"),
		Entry("untouched text", "Coffee Shop", "Coffee Shop"),
		Entry("empty", "", ""),
	)

	It("should split SAPN Google Pay labels into clean words", func() {
		Expect(CleanDescription("SAPN,Google Pay,BEA")).To(Equal("SAPN Google Pay"))
	})
})
