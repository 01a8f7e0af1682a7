package stats_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/stats"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(id, userID int64, amount string, cat category.Category) stats.Row {
	return stats.Row{ID: id, UserID: userID, Amount: dec(amount), Category: cat}
}

var _ = Describe("Reducers", func() {
	Describe("Summarize", func() {
		It("computes the headline figures", func() {
			rows := []stats.Row{
				row(1, 1, "10", category.Food),
				row(2, 1, "20", category.Food),
				row(3, 1, "5", category.Transport),
			}

			summary := stats.Summarize(rows)
			Expect(summary.Total.Equal(dec("35"))).To(BeTrue())
			Expect(summary.Average.Equal(dec("35").Div(decimal.NewFromInt(3)))).To(BeTrue())
			Expect(summary.Highest.Equal(dec("20"))).To(BeTrue())
			Expect(summary.Lowest.Equal(dec("5"))).To(BeTrue())
			Expect(summary.Count).To(Equal(int64(3)))
		})

		It("returns zeros for an empty ledger", func() {
			summary := stats.Summarize(nil)
			Expect(summary.Total.IsZero()).To(BeTrue())
			Expect(summary.Average.IsZero()).To(BeTrue())
			Expect(summary.Highest.IsZero()).To(BeTrue())
			Expect(summary.Lowest.IsZero()).To(BeTrue())
			Expect(summary.Count).To(BeZero())
		})

		It("does not drift over many cents", func() {
			rows := make([]stats.Row, 0, 1000)
			for i := int64(1); i <= 1000; i++ {
				rows = append(rows, row(i, 1, "0.10", category.Other))
			}
			Expect(stats.Summarize(rows).Total.Equal(dec("100"))).To(BeTrue())
		})
	})

	Describe("GroupByCategory", func() {
		It("orders groups by descending total", func() {
			rows := []stats.Row{
				row(1, 1, "5", category.Transport),
				row(2, 1, "10", category.Food),
				row(3, 1, "20", category.Food),
			}

			groups := stats.GroupByCategory(rows)
			Expect(groups).To(HaveLen(2))
			Expect(groups[0].Category).To(Equal(category.Food))
			Expect(groups[0].Total.Equal(dec("30"))).To(BeTrue())
			Expect(groups[0].Count).To(Equal(int64(2)))
			Expect(groups[1].Category).To(Equal(category.Transport))
			Expect(groups[1].Total.Equal(dec("5"))).To(BeTrue())
			Expect(groups[1].Count).To(Equal(int64(1)))
		})

		It("keeps first-seen order for ties", func() {
			rows := []stats.Row{
				row(1, 1, "7", category.Utilities),
				row(2, 1, "7", category.Shopping),
				row(3, 1, "7", category.Entertainment),
			}

			groups := stats.GroupByCategory(rows)
			Expect([]category.Category{groups[0].Category, groups[1].Category, groups[2].Category}).
				To(Equal([]category.Category{category.Utilities, category.Shopping, category.Entertainment}))
		})

		It("returns an empty list rather than nil", func() {
			groups := stats.GroupByCategory(nil)
			Expect(groups).NotTo(BeNil())
			Expect(groups).To(BeEmpty())
		})
	})

	Describe("RankUsers", func() {
		rows := []stats.Row{
			row(1, 3, "10", category.Food),
			row(2, 1, "40", category.Food),
			row(3, 2, "10", category.Food),
			row(4, 3, "5", category.Food),
		}

		It("ranks by descending total and caps the list", func() {
			ranked := stats.RankUsers(rows, 2)
			Expect(ranked).To(HaveLen(2))
			Expect(ranked[0].UserID).To(Equal(int64(1)))
			Expect(ranked[1].UserID).To(Equal(int64(3)))
			Expect(ranked[1].Total.Equal(dec("15"))).To(BeTrue())
			Expect(ranked[1].Count).To(Equal(int64(2)))
		})

		It("returns every user when n is not positive", func() {
			Expect(stats.RankUsers(rows, 0)).To(HaveLen(3))
		})
	})

	Describe("JSON shape", func() {
		It("uses the reporting field names", func() {
			out, err := json.Marshal(stats.UserStats{
				Stats:      stats.Summarize(nil),
				ByCategory: stats.GroupByCategory(nil),
			})
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]interface{}
			Expect(json.Unmarshal(out, &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("byCategory", BeEmpty()))
			Expect(decoded).To(HaveKey("stats"))

			summary := decoded["stats"].(map[string]interface{})
			Expect(summary).To(HaveKeyWithValue("totalExpenses", "0"))
			Expect(summary).To(HaveKeyWithValue("averageExpense", "0"))
			Expect(summary).To(HaveKeyWithValue("highestExpense", "0"))
			Expect(summary).To(HaveKeyWithValue("lowestExpense", "0"))
			Expect(summary).To(HaveKeyWithValue("totalCount", BeNumerically("==", 0)))
		})
	})
})
