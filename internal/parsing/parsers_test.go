package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parsers", func() {
	var (
		registry   *Registry
		kind       SourceKind
		text       string
		candidates []Candidate
	)

	BeforeEach(func() {
		registry = newTestRegistry()
	})

	JustBeforeEach(func() {
		candidates = registry.For(kind).Parse(text)
	})

	Describe("RevolutParser", func() {
		BeforeEach(func() {
			kind = SourceRevolut
		})

		When("the screenshot shows a relative date and a category label", func() {
			BeforeEach(func() {
				text = "-€12,50\nKiosk Centraal\nToday, 14:32\nCategory Groceries\nSplit bill"
			})

			It("should produce one candidate", func() {
				Expect(candidates).To(HaveLen(1))
			})

			It("should leave the date empty with a warning", func() {
				Expect(candidates[0].Date).To(BeEmpty())
				Expect(candidates[0].DateWarning).To(Equal("Original showed 'today' - please verify date"))
			})

			It("should extract amount and description", func() {
				Expect(candidates[0].Amount).To(BeNumerically("~", 12.50, 0.001))
				Expect(candidates[0].Description).To(Equal("Kiosk Centraal"))
				Expect(candidates[0].Currency).To(Equal("EUR"))
			})

			It("should prefer the explicit category over keywords", func() {
				Expect(candidates[0].Category).To(Equal("Groceries"))
			})
		})

		When("the category label is not in the vocabulary", func() {
			BeforeEach(func() {
				text = "-€5,00\nRode Kruis\nToday, 10:00\nCategory Charity\nSplit bill"
			})

			It("should keep the label as printed", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Category).To(Equal("Charity"))
			})
		})

		When("the screenshot shows a month and day", func() {
			BeforeEach(func() {
				text = "€8,40\nStarbucks\nMay 29, 09:15\nVisa 1234\nSplit bill\nRevolut"
			})

			It("should combine it with the current year", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Date).To(Equal("2025-05-29"))
				Expect(candidates[0].DateWarning).To(BeEmpty())
			})

			It("should categorize by keyword", func() {
				Expect(candidates[0].Category).To(Equal("Caffeine"))
			})
		})

		When("the amount is in dollars", func() {
			BeforeEach(func() {
				text = "-$10.00\nUber\n09:15\nSplit bill"
			})

			It("should detect the currency", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Currency).To(Equal("USD"))
				Expect(candidates[0].Amount).To(BeNumerically("~", 10.0, 0.001))
				Expect(candidates[0].Description).To(Equal("Uber"))
			})
		})

		When("the amount only appears in the merchant charge line", func() {
			BeforeEach(func() {
				text = "Amsterdam\nCoffee Company\nSplit bill\nCharged by merchant €3,20"
			})

			It("should use the charged amount", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Amount).To(BeNumerically("~", 3.20, 0.001))
				Expect(candidates[0].Description).To(Equal("Coffee Company"))
			})

			It("should default the date to today", func() {
				Expect(candidates[0].Date).To(Equal("2025-06-14"))
			})
		})

		When("no description can be found", func() {
			BeforeEach(func() {
				text = "€5,00\n12:30\n€5,00"
			})

			It("should produce nothing", func() {
				Expect(candidates).To(BeEmpty())
			})
		})

		When("the text is empty", func() {
			BeforeEach(func() {
				text = ""
			})

			It("should produce nothing", func() {
				Expect(candidates).To(BeEmpty())
			})
		})
	})

	Describe("AbnAmroSingleParser", func() {
		BeforeEach(func() {
			kind = SourceAbnAmroSingle
		})

		When("the screen has an execution date", func() {
			BeforeEach(func() {
				text = "-€6,50\nBakkerij de Vries,PAS011\nPayment terminal\nExecution\n29 May 2025\nFrom account\nNL50 ABNA 0123 4567 89"
			})

			It("should extract every field", func() {
				Expect(candidates).To(HaveLen(1))
				c := candidates[0]
				Expect(c.Amount).To(BeNumerically("~", 6.50, 0.001))
				Expect(c.Date).To(Equal("2025-05-29"))
				Expect(c.Description).To(Equal("Bakkerij de Vries"))
				Expect(c.Category).To(Equal("Household"))
				Expect(c.Currency).To(Equal("EUR"))
				Expect(c.Source).To(Equal(SourceAbnAmroSingle))
			})
		})

		When("the date is in Dutch", func() {
			BeforeEach(func() {
				text = "Jumbo Utrecht\n€ 23,10\n12 mei 2025"
			})

			It("should parse the Dutch month", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Date).To(Equal("2025-05-12"))
				Expect(candidates[0].Category).To(Equal("Groceries"))
			})
		})

		When("the date has a weekday", func() {
			BeforeEach(func() {
				text = "Tikkie payment request\nEetcafe De Zon\n€ 1.524,55\nFriday 30 May 2025"
			})

			It("should parse the weekday date", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Date).To(Equal("2025-05-30"))
				Expect(candidates[0].Amount).To(BeNumerically("~", 1524.55, 0.001))
				Expect(candidates[0].Description).To(Equal("Eetcafe De Zon"))
			})
		})

		When("there is no date", func() {
			BeforeEach(func() {
				text = "Tikkie payment request\nPizza night\n€12,00"
			})

			It("should default to today", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Date).To(Equal("2025-06-14"))
			})
		})

		When("the only amount is implausible", func() {
			BeforeEach(func() {
				text = "Payment terminal\nSomething\n€ 0,00"
			})

			It("should produce nothing", func() {
				Expect(candidates).To(BeEmpty())
			})
		})

		When("there is no description", func() {
			BeforeEach(func() {
				text = "Payment terminal\n€ 4,50\n12:00"
			})

			It("should produce nothing", func() {
				Expect(candidates).To(BeEmpty())
			})
		})
	})

	Describe("AbnAmroListParser", func() {
		BeforeEach(func() {
			kind = SourceAbnAmroList
		})

		When("the list has a date heading", func() {
			BeforeEach(func() {
				text = "Thursday 29 May 2025\nCoffee Shop - 4,50\nSupermarket - 23,10"
			})

			It("should produce one candidate per row", func() {
				Expect(candidates).To(HaveLen(2))
			})

			It("should anchor every row to the heading date", func() {
				Expect(candidates[0].Date).To(Equal("2025-05-29"))
				Expect(candidates[1].Date).To(Equal("2025-05-29"))
			})

			It("should extract amounts and categories", func() {
				Expect(candidates[0].Description).To(Equal("Coffee Shop"))
				Expect(candidates[0].Amount).To(BeNumerically("~", 4.50, 0.001))
				Expect(candidates[0].Category).To(Equal("Caffeine"))
				Expect(candidates[1].Description).To(Equal("Supermarket"))
				Expect(candidates[1].Amount).To(BeNumerically("~", 23.10, 0.001))
				Expect(candidates[1].Category).To(Equal("Groceries"))
			})
		})

		When("a row is just a weekday", func() {
			BeforeEach(func() {
				text = "Donderdag 29 mei 2025\nThursday - 1,00\nTaxi Centraal - 18,00"
			})

			It("should skip it", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Description).To(Equal("Taxi Centraal"))
				Expect(candidates[0].Date).To(Equal("2025-05-29"))
				Expect(candidates[0].Category).To(Equal("Transport"))
			})
		})

		When("there is no date heading", func() {
			BeforeEach(func() {
				text = "Jumbo - 3,00\nLidl - 4,00"
			})

			It("should use today", func() {
				Expect(candidates).To(HaveLen(2))
				Expect(candidates[0].Date).To(Equal("2025-06-14"))
			})
		})
	})

	Describe("GenericParser", func() {
		BeforeEach(func() {
			kind = SourceGeneric
		})

		When("the receipt has a labelled total", func() {
			BeforeEach(func() {
				text = "Pizzeria Napoli\nMargherita 9,50\nTotaal 23,50\n12/03/2025"
			})

			It("should use the total and the first line", func() {
				Expect(candidates).To(HaveLen(1))
				c := candidates[0]
				Expect(c.Amount).To(BeNumerically("~", 23.50, 0.001))
				Expect(c.Description).To(Equal("Pizzeria Napoli"))
				Expect(c.Date).To(Equal("2025-03-12"))
				Expect(c.Category).To(Equal("Restaurants"))
				Expect(c.Currency).To(Equal("EUR"))
			})
		})

		When("there is no total label", func() {
			BeforeEach(func() {
				text = "Corner Store\n2,50\n13,75\n4,00"
			})

			It("should take the largest amount", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Amount).To(BeNumerically("~", 13.75, 0.001))
			})
		})

		When("the total is in dollars", func() {
			BeforeEach(func() {
				text = "Diner\nTotal: $18.40"
			})

			It("should detect the currency", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Currency).To(Equal("USD"))
				Expect(candidates[0].Amount).To(BeNumerically("~", 18.40, 0.001))
			})
		})

		When("an ISO code follows the amount", func() {
			BeforeEach(func() {
				text = "Budapest Bisztro\nOsszesen 4500,00 HUF"
			})

			It("should use that currency", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Currency).To(Equal("HUF"))
			})
		})

		When("a receipt word is also an ISO code", func() {
			DescribeTable("should keep the default currency",
				func(receipt string) {
					Expect(registry.For(SourceGeneric).Parse(receipt)).To(ConsistOf(
						HaveField("Currency", "EUR"),
					))
				},
				Entry("CUP", "Coffee Corner\nCUP 3,50\nTotaal 3,50"),
				Entry("GEL", "Kruidvat\nGEL 4,99\nTotaal 4,99"),
				Entry("PEN", "Bruna\nPEN 2,25\nTotaal 2,25"),
			)
		})

		When("the receipt carries an ISO date", func() {
			BeforeEach(func() {
				text = "Hema Utrecht\nDatum 2025-05-29\nTotaal 12,50"
			})

			It("should read year, month and day", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Date).To(Equal("2025-05-29"))
				Expect(candidates[0].Amount).To(BeNumerically("~", 12.50, 0.001))
			})
		})

		When("a day/month/year date follows other digits", func() {
			BeforeEach(func() {
				text = "Shop\nBon 125-05-29\nTotaal 5,00"
			})

			It("should not read a date from inside the number", func() {
				Expect(candidates[0].Date).To(Equal("2025-06-14"))
			})
		})

		When("the date uses dashes and a short year", func() {
			BeforeEach(func() {
				text = "Shop\n5,00\n01-02-24"
			})

			It("should read it as day, month, year", func() {
				Expect(candidates[0].Date).To(Equal("2024-02-01"))
			})
		})

		When("the date is not a real date", func() {
			BeforeEach(func() {
				text = "Shop\n5,00\n31/02/2025"
			})

			It("should default to today", func() {
				Expect(candidates[0].Date).To(Equal("2025-06-14"))
			})
		})

		When("there is a line but no amount", func() {
			BeforeEach(func() {
				text = "Hello"
			})

			It("should keep the description with a zero amount", func() {
				Expect(candidates).To(HaveLen(1))
				Expect(candidates[0].Amount).To(BeZero())
				Expect(candidates[0].Valid()).To(BeFalse())
			})
		})

		When("the text is blank", func() {
			BeforeEach(func() {
				text = "  \n\n   "
			})

			It("should produce nothing", func() {
				Expect(candidates).To(BeEmpty())
			})
		})
	})
})
