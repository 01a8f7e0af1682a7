package expense

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/payment"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

const (
	DateLayout           = "2006-01-02"
	MaxDescriptionLength = 500

	// Amounts are stored as NUMERIC(14,2).
	MaxAmountScale         = 2
	MaxAmountIntegerDigits = 12
)

type Expense struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Amount        decimal.Decimal   `json:"amount"`
	Category      category.Category `json:"category"`
	Description   string            `json:"description"`
	Date          time.Time         `json:"date"`
	PaymentMethod payment.Method    `json:"payment_method"`
	Tags          []string          `json:"tags"`
	Status        Status            `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Owner         *Owner            `json:"owner,omitempty"`
}

// Owner is the display identity attached to expenses in admin listings.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type expenseJSON Expense

// MarshalJSON writes the date as a calendar date and never emits null tags.
func (e Expense) MarshalJSON() ([]byte, error) {
	out := struct {
		expenseJSON
		Date string `json:"date"`
	}{
		expenseJSON: expenseJSON(e),
		Date:        e.Date.Format(DateLayout),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return json.Marshal(out)
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	in := struct {
		*expenseJSON
		Date string `json:"date"`
	}{
		expenseJSON: (*expenseJSON)(e),
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Date != "" {
		d, err := ParseDate(in.Date)
		if err != nil {
			return err
		}
		e.Date = d
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", raw)
	}
	return CalendarDate(t), nil
}

// CalendarDate drops the time of day, keeping the date as seen in t's zone.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeTags trims, drops empties and de-duplicates while keeping the
// first occurrence. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Clone returns a deep copy.
func (e *Expense) Clone() *Expense {
	if e == nil {
		return nil
	}
	c := *e
	c.Tags = append([]string{}, e.Tags...)
	if e.Owner != nil {
		o := *e.Owner
		c.Owner = &o
	}
	return &c
}

// NewExpense builds a pending expense owned by ownerID. Input is assumed to
// be validated already.
func NewExpense(ownerID int64, in CreateExpenseDTO, now time.Time) *Expense {
	method, _ := payment.Parse(in.PaymentMethod)

	date := CalendarDate(now)
	if in.Date != "" {
		if d, err := ParseDate(in.Date); err == nil {
			date = d
		}
	}

	amount := decimal.Zero
	if in.Amount != nil {
		amount = *in.Amount
	}

	return &Expense{
		UserID:        ownerID,
		Amount:        amount,
		Category:      category.Category(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Date:          date,
		PaymentMethod: method,
		Tags:          NormalizeTags(in.Tags),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyUpdate copies the mutable fields present in in onto e. Owner, id and
// status are never touched.
func (e *Expense) ApplyUpdate(in UpdateExpenseDTO, now time.Time) {
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		e.Category = category.Category(*in.Category)
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Date != nil {
		if d, err := ParseDate(*in.Date); err == nil {
			e.Date = d
		}
	}
	if in.PaymentMethod != nil {
		e.PaymentMethod, _ = payment.Parse(*in.PaymentMethod)
	}
	if in.Tags != nil {
		e.Tags = NormalizeTags(*in.Tags)
	}
	e.UpdatedAt = now
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        e.Amount,
		Category:      string(e.Category),
		Description:   e.Description,
		Date:          e.Date,
		PaymentMethod: string(e.PaymentMethod),
		Tags:          expenseDatamodel.StringList(NormalizeTags(e.Tags)),
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// FromDataModel converts a stored row. Enumerated values outside their
// closed sets are reported as data-integrity errors rather than coerced.
func FromDataModel(e *expenseDatamodel.Expense) (*Expense, error) {
	cat, ok := category.Parse(e.Category)
	if !ok {
		return nil, internal.NewDataIntegrityError(fmt.Sprintf("expense %d has unknown category %q", e.ID, e.Category))
	}
	method := payment.Method(e.PaymentMethod)
	if !method.Valid() {
		return nil, internal.NewDataIntegrityError(fmt.Sprintf("expense %d has unknown payment method %q", e.ID, e.PaymentMethod))
	}
	status := Status(e.Status)
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, internal.NewDataIntegrityError(fmt.Sprintf("expense %d has unknown status %q", e.ID, e.Status))
	}

	tags := []string(e.Tags)
	if tags == nil {
		tags = []string{}
	}

	out := &Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        e.Amount,
		Category:      cat,
		Description:   e.Description,
		Date:          CalendarDate(e.Date),
		PaymentMethod: method,
		Tags:          tags,
		Status:        status,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.User != nil {
		out.Owner = &Owner{Name: e.User.Name, Email: e.User.Email}
	}
	return out, nil
}

func FromDataModelSlice(rows []*expenseDatamodel.Expense) ([]*Expense, error) {
	result := make([]*Expense, len(rows))
	for i, row := range rows {
		e, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}
