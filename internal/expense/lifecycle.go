package expense

import (
	"fmt"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

// CanTransitionTo reports whether target is a status an expense may be moved
// to. The source status is not consulted: an approved or rejected expense may
// be re-approved or re-rejected.
func CanTransitionTo(target Status) bool {
	return target == StatusApproved || target == StatusRejected
}

// Transition returns a copy of exp moved to target. Only Status and
// UpdatedAt differ from the input, which is never mutated.
func Transition(exp *Expense, target Status, caller coreuser.Caller, now time.Time) (*Expense, error) {
	if err := CanAccess(caller, exp, OpTransition).Err(); err != nil {
		return nil, err
	}

	if !CanTransitionTo(target) {
		return nil, internal.NewInvalidTransitionError(
			fmt.Sprintf("cannot transition expense %d to %q", exp.ID, target))
	}

	updated := exp.Clone()
	updated.Status = target
	updated.UpdatedAt = now
	return updated, nil
}
