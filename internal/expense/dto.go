package expense

import (
	"strings"

	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	"github.com/frahmantamala/expense-tracker/internal/payment"
)

// CreateExpenseDTO represents the request payload for creating an expense.
// Any status sent by the client is ignored.
type CreateExpenseDTO struct {
	Amount        *decimal.Decimal `json:"amount"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Date          string           `json:"date,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
}

func (dto CreateExpenseDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).
		Required().
		NonNegative(internal.ErrCodeInvalidAmount).
		Precision(MaxAmountIntegerDigits, MaxAmountScale, internal.ErrCodeInvalidAmount)
	v.Field("category", dto.Category).
		Required().
		OneOf(category.Names(), internal.ErrCodeInvalidCategory)
	v.Field("description", strings.TrimSpace(dto.Description)).
		Required().
		MaxLength(MaxDescriptionLength)
	v.Field("payment_method", dto.PaymentMethod).
		OneOf(payment.Names(), internal.ErrCodeInvalidPayment)
	v.Field("date", dto.Date).Custom(validateDate("date"))
	return v.Validate()
}

// UpdateExpenseDTO is a partial update; nil fields are left alone.
type UpdateExpenseDTO struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Date          *string          `json:"date,omitempty"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
}

func (dto UpdateExpenseDTO) IsEmpty() bool {
	return dto.Amount == nil && dto.Category == nil && dto.Description == nil &&
		dto.Date == nil && dto.PaymentMethod == nil && dto.Tags == nil
}

func (dto UpdateExpenseDTO) Validate() *internal.AppError {
	if dto.IsEmpty() {
		return internal.NewValidationError("At least one field must be provided", internal.ErrCodeEmptyUpdate)
	}

	v := validation.NewValidator()
	if dto.Amount != nil {
		v.Field("amount", dto.Amount).
			NonNegative(internal.ErrCodeInvalidAmount).
			Precision(MaxAmountIntegerDigits, MaxAmountScale, internal.ErrCodeInvalidAmount)
	}
	if dto.Category != nil {
		v.Field("category", dto.Category).
			Required().
			OneOf(category.Names(), internal.ErrCodeInvalidCategory)
	}
	if dto.Description != nil {
		v.Field("description", strings.TrimSpace(*dto.Description)).
			Required().
			MaxLength(MaxDescriptionLength)
	}
	if dto.PaymentMethod != nil {
		v.Field("payment_method", dto.PaymentMethod).
			Required().
			OneOf(payment.Names(), internal.ErrCodeInvalidPayment)
	}
	if dto.Date != nil {
		v.Field("date", *dto.Date).
			Required().
			Custom(validateDate("date"))
	}
	return v.Validate()
}

func validateDate(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		raw, _ := value.(string)
		if raw == "" {
			return nil
		}
		if _, err := ParseDate(raw); err != nil {
			return internal.NewValidationFieldError(field, err.Error(), internal.ErrCodeInvalidDate)
		}
		return nil
	}
}

type TransitionDTO struct {
	Status string `json:"status"`
}

// ListQuery filters a user's own expenses.
type ListQuery struct {
	Category  string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// AdminListQuery filters the whole ledger.
type AdminListQuery struct {
	UserID   int64
	Category string
	Status   string
	Page     int
	Limit    int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type ListResponse struct {
	Expenses   []*Expense `json:"expenses"`
	Pagination Pagination `json:"pagination"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
