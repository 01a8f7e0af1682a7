package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated  = "expense.created"
	EventTypeExpenseUpdated  = "expense.updated"
	EventTypeExpenseDeleted  = "expense.deleted"
	EventTypeExpenseApproved = "expense.approved"
	EventTypeExpenseRejected = "expense.rejected"
)

// ExpenseEventTypes lists every lifecycle event the expense service emits.
var ExpenseEventTypes = []string{
	EventTypeExpenseCreated,
	EventTypeExpenseUpdated,
	EventTypeExpenseDeleted,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

type ExpenseEvent struct {
	BaseEvent
	ExpenseID int64  `json:"expense_id"`
	UserID    int64  `json:"user_id"`
	ActorID   int64  `json:"actor_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

// NewExpenseEvent builds a lifecycle event. userID is the owner of the
// expense, actorID the caller that caused the change.
func NewExpenseEvent(eventType string, expenseID, userID, actorID int64, status, amount string) *ExpenseEvent {
	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"expense_id": expenseID,
				"user_id":    userID,
				"actor_id":   actorID,
				"status":     status,
				"amount":     amount,
			},
		},
		ExpenseID: expenseID,
		UserID:    userID,
		ActorID:   actorID,
		Status:    status,
		Amount:    amount,
	}
}
