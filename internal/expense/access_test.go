package expense_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

var (
	owner         = coreuser.Caller{ID: 1, Email: "owner@example.com", Role: coreuser.RoleUser, Active: true}
	stranger      = coreuser.Caller{ID: 2, Email: "other@example.com", Role: coreuser.RoleUser, Active: true}
	admin         = coreuser.Caller{ID: 9, Email: "admin@example.com", Role: coreuser.RoleAdmin, Active: true}
	inactive      = coreuser.Caller{ID: 1, Email: "owner@example.com", Role: coreuser.RoleUser, Active: false}
	disabledAdmin = coreuser.Caller{ID: 9, Email: "admin@example.com", Role: coreuser.RoleAdmin, Active: false}
)

func ownedBy(userID int64, status expense.Status) *expense.Expense {
	return &expense.Expense{ID: 100, UserID: userID, Status: status, Tags: []string{}}
}

var _ = Describe("CanAccess", func() {
	DescribeTable("decisions",
		func(caller coreuser.Caller, exp *expense.Expense, op expense.Operation, allowed bool, reason expense.DenyReason) {
			d := expense.CanAccess(caller, exp, op)
			Expect(d.Allowed).To(Equal(allowed))
			Expect(d.Reason).To(Equal(reason))
		},
		Entry("owner reads", owner, ownedBy(1, expense.StatusPending), expense.OpRead, true, expense.DenyReason("")),
		Entry("admin reads any", admin, ownedBy(1, expense.StatusPending), expense.OpRead, true, expense.DenyReason("")),
		Entry("stranger cannot read", stranger, ownedBy(1, expense.StatusPending), expense.OpRead, false, expense.ReasonNotOwner),

		Entry("owner modifies a pending expense", owner, ownedBy(1, expense.StatusPending), expense.OpModify, true, expense.DenyReason("")),
		Entry("owner modifies an approved expense", owner, ownedBy(1, expense.StatusApproved), expense.OpModify, true, expense.DenyReason("")),
		Entry("owner modifies a rejected expense", owner, ownedBy(1, expense.StatusRejected), expense.OpModify, true, expense.DenyReason("")),
		Entry("admin modifies any", admin, ownedBy(1, expense.StatusApproved), expense.OpModify, true, expense.DenyReason("")),
		Entry("stranger cannot modify", stranger, ownedBy(1, expense.StatusPending), expense.OpModify, false, expense.ReasonNotOwner),

		Entry("owner deletes pending", owner, ownedBy(1, expense.StatusPending), expense.OpDelete, true, expense.DenyReason("")),
		Entry("owner deletes rejected", owner, ownedBy(1, expense.StatusRejected), expense.OpDelete, true, expense.DenyReason("")),
		Entry("owner cannot delete approved", owner, ownedBy(1, expense.StatusApproved), expense.OpDelete, false, expense.ReasonApprovedImmutable),
		Entry("admin cannot delete approved", admin, ownedBy(1, expense.StatusApproved), expense.OpDelete, false, expense.ReasonApprovedImmutable),
		Entry("admin deletes pending", admin, ownedBy(1, expense.StatusPending), expense.OpDelete, true, expense.DenyReason("")),
		Entry("stranger gets not-owner before approved", stranger, ownedBy(1, expense.StatusApproved), expense.OpDelete, false, expense.ReasonNotOwner),

		Entry("admin transitions others", admin, ownedBy(1, expense.StatusPending), expense.OpTransition, true, expense.DenyReason("")),
		Entry("admin transitions own", admin, ownedBy(9, expense.StatusPending), expense.OpTransition, true, expense.DenyReason("")),
		Entry("owner cannot transition", owner, ownedBy(1, expense.StatusPending), expense.OpTransition, false, expense.ReasonNotAdmin),

		Entry("inactive owner is locked out of reads", inactive, ownedBy(1, expense.StatusPending), expense.OpRead, false, expense.ReasonInactiveAccount),
		Entry("inactive owner is locked out of creates", inactive, nil, expense.OpCreate, false, expense.ReasonInactiveAccount),
		Entry("inactive admin cannot transition", disabledAdmin, ownedBy(1, expense.StatusPending), expense.OpTransition, false, expense.ReasonInactiveAccount),

		Entry("missing expense", owner, nil, expense.OpRead, false, expense.ReasonNotFound),
		Entry("missing expense for admin", admin, nil, expense.OpTransition, false, expense.ReasonNotFound),
		Entry("active caller creates", stranger, nil, expense.OpCreate, true, expense.DenyReason("")),
		Entry("unknown operation", owner, ownedBy(1, expense.StatusPending), expense.Operation("archive"), false, expense.ReasonUnknownOperation),
	)

	It("converts denials into errors carrying the reason", func() {
		err := expense.CanAccess(owner, ownedBy(1, expense.StatusApproved), expense.OpDelete).Err()
		Expect(internal.ErrorCodeOf(err)).To(Equal(internal.ErrorCode("approved-immutable")))
		Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeUnauthorized))

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(403))
	})

	It("reports a missing expense as not found", func() {
		err := expense.CanAccess(owner, nil, expense.OpRead).Err()
		Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeNotFound))
	})

	It("returns no error when allowed", func() {
		Expect(expense.CanAccess(owner, ownedBy(1, expense.StatusPending), expense.OpRead).Err()).To(Succeed())
	})
})

var _ = Describe("CanViewLedger", func() {
	It("lets owners and admins view a ledger", func() {
		Expect(expense.CanViewLedger(owner, 1).Allowed).To(BeTrue())
		Expect(expense.CanViewLedger(admin, 1).Allowed).To(BeTrue())
	})

	It("refuses strangers and inactive callers", func() {
		Expect(expense.CanViewLedger(stranger, 1).Reason).To(Equal(expense.ReasonNotOwner))
		Expect(expense.CanViewLedger(inactive, 1).Reason).To(Equal(expense.ReasonInactiveAccount))
	})
})

var _ = Describe("AuthorizeAdmin", func() {
	It("allows active admins only", func() {
		Expect(expense.AuthorizeAdmin(admin).Allowed).To(BeTrue())
		Expect(expense.AuthorizeAdmin(owner).Reason).To(Equal(expense.ReasonNotAdmin))
		Expect(expense.AuthorizeAdmin(disabledAdmin).Reason).To(Equal(expense.ReasonInactiveAccount))
	})
})
