package expense_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/payment"
)

var _ = Describe("Transition", func() {
	var (
		original *expense.Expense
		now      time.Time
	)

	BeforeEach(func() {
		created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		now = created.Add(time.Hour)
		original = &expense.Expense{
			ID:            7,
			UserID:        owner.ID,
			Amount:        decimal.NewFromInt(50),
			Category:      category.Shopping,
			Description:   "Shoes",
			Date:          expense.CalendarDate(created),
			PaymentMethod: payment.Card,
			Tags:          []string{"gift"},
			Status:        expense.StatusPending,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
	})

	DescribeTable("admin transitions from any state",
		func(from, to expense.Status) {
			original.Status = from
			updated, err := expense.Transition(original, to, admin, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(to))
			Expect(updated.UpdatedAt).To(Equal(now))
		},
		Entry("pending to approved", expense.StatusPending, expense.StatusApproved),
		Entry("pending to rejected", expense.StatusPending, expense.StatusRejected),
		Entry("approved to approved", expense.StatusApproved, expense.StatusApproved),
		Entry("approved to rejected", expense.StatusApproved, expense.StatusRejected),
		Entry("rejected to approved", expense.StatusRejected, expense.StatusApproved),
	)

	It("changes nothing but status and update time", func() {
		updated, err := expense.Transition(original, expense.StatusApproved, admin, now)
		Expect(err).NotTo(HaveOccurred())

		Expect(updated.ID).To(Equal(original.ID))
		Expect(updated.UserID).To(Equal(original.UserID))
		Expect(updated.Amount.Equal(original.Amount)).To(BeTrue())
		Expect(updated.Category).To(Equal(original.Category))
		Expect(updated.Description).To(Equal(original.Description))
		Expect(updated.Date).To(Equal(original.Date))
		Expect(updated.PaymentMethod).To(Equal(original.PaymentMethod))
		Expect(updated.Tags).To(Equal(original.Tags))
		Expect(updated.CreatedAt).To(Equal(original.CreatedAt))
	})

	It("does not mutate its input", func() {
		_, err := expense.Transition(original, expense.StatusRejected, admin, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(original.Status).To(Equal(expense.StatusPending))
		Expect(original.UpdatedAt).NotTo(Equal(now))
	})

	DescribeTable("refuses targets outside approved and rejected",
		func(target expense.Status) {
			_, err := expense.Transition(original, target, admin, now)
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidTransition))
		},
		Entry("pending", expense.StatusPending),
		Entry("unknown", expense.Status("paid")),
		Entry("empty", expense.Status("")),
	)

	It("refuses non-admin callers before looking at the target", func() {
		_, err := expense.Transition(original, expense.StatusPending, owner, now)
		Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonNotAdmin)))
	})

	It("refuses inactive admins", func() {
		_, err := expense.Transition(original, expense.StatusApproved, disabledAdmin, now)
		Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode(expense.ReasonInactiveAccount)))
	})
})
