package expense

import (
	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

type Operation string

const (
	OpCreate     Operation = "create"
	OpRead       Operation = "read"
	OpModify     Operation = "modify"
	OpDelete     Operation = "delete"
	OpTransition Operation = "transition"
)

// DenyReason is the machine-readable cause of a denied decision.
type DenyReason string

const (
	ReasonNotFound          DenyReason = "not-found"
	ReasonNotOwner          DenyReason = "not-owner"
	ReasonNotAdmin          DenyReason = "not-admin"
	ReasonInactiveAccount   DenyReason = "inactive-account"
	ReasonApprovedImmutable DenyReason = "approved-immutable"
	ReasonUnknownOperation  DenyReason = "unknown-operation"
)

var denyMessages = map[DenyReason]string{
	ReasonNotOwner:          "You do not own this expense",
	ReasonNotAdmin:          "Administrator role required",
	ReasonInactiveAccount:   "User account is inactive",
	ReasonApprovedImmutable: "Approved expenses cannot be deleted",
	ReasonUnknownOperation:  "Operation not permitted",
}

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err turns a denial into an AppError; it returns nil when allowed.
// A missing expense surfaces as NOT_FOUND, every other reason as an
// UNAUTHORIZED error whose code is the reason.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotFound {
		return internal.ErrExpenseNotFound()
	}
	return internal.NewAccessDeniedError(denyMessages[d.Reason], string(d.Reason))
}

// CanAccess decides whether caller may perform op on exp. It has no side
// effects. A nil exp means the expense does not exist.
func CanAccess(caller coreuser.Caller, exp *Expense, op Operation) Decision {
	if !caller.Active {
		return deny(ReasonInactiveAccount)
	}

	switch op {
	case OpCreate:
		return allow()
	case OpRead, OpModify, OpDelete, OpTransition:
	default:
		return deny(ReasonUnknownOperation)
	}

	if exp == nil {
		return deny(ReasonNotFound)
	}

	if op == OpTransition {
		if !caller.IsAdmin() {
			return deny(ReasonNotAdmin)
		}
		return allow()
	}

	if !caller.Owns(exp.UserID) && !caller.IsAdmin() {
		return deny(ReasonNotOwner)
	}

	if op == OpDelete && exp.Status == StatusApproved {
		return deny(ReasonApprovedImmutable)
	}

	return allow()
}

// CanViewLedger applies the read rule to a user's whole ledger.
func CanViewLedger(caller coreuser.Caller, ownerID int64) Decision {
	if !caller.Active {
		return deny(ReasonInactiveAccount)
	}
	if !caller.Owns(ownerID) && !caller.IsAdmin() {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// AuthorizeAdmin allows active administrators only.
func AuthorizeAdmin(caller coreuser.Caller) Decision {
	if !caller.Active {
		return deny(ReasonInactiveAccount)
	}
	if !caller.IsAdmin() {
		return deny(ReasonNotAdmin)
	}
	return allow()
}
