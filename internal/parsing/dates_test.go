package parsing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DetectRelativeDate", func() {
	It("should report the first phrase in table order", func() {
		phrase, ok := DetectRelativeDate("Gisteren, vandaag")
		Expect(ok).To(BeTrue())
		Expect(phrase).To(Equal("vandaag"))
	})

	It("should be case-insensitive", func() {
		phrase, ok := DetectRelativeDate("This Morning 08:12")
		Expect(ok).To(BeTrue())
		Expect(phrase).To(Equal("this morning"))
	})

	It("should report nothing for absolute dates", func() {
		_, ok := DetectRelativeDate("29 May 2025")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("parseWeekdayDate", func() {
	DescribeTable("lines",
		func(line string, ok bool, expected time.Time) {
			t, parsed := parseWeekdayDate(line)
			Expect(parsed).To(Equal(ok))
			if ok {
				Expect(t).To(Equal(expected))
			}
		},
		Entry("English", "Thursday 29 May 2025", true, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)),
		Entry("Dutch", "donderdag 29 mei 2025", true, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)),
		Entry("impossible day", "Monday 31 June 2025", false, time.Time{}),
		Entry("trailing text", "Thursday 29 May 2025 total", false, time.Time{}),
		Entry("no weekday", "29 May 2025", false, time.Time{}),
	)
})
