package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

type ListOrder int

const (
	OrderByDateDesc ListOrder = iota
	OrderByCreatedDesc
)

// ListFilter selects expenses; nil fields are not filtered on.
type ListFilter struct {
	UserID    *int64
	Category  *category.Category
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
	OrderBy   ListOrder
	WithOwner bool
}

// Repository is the ledger store for expenses. Lookups of missing rows
// return internal.ErrRecordNotFound.
type Repository interface {
	Create(ctx context.Context, exp *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*Expense, int64, error)
	// Update writes the mutable content fields and updated_at only.
	Update(ctx context.Context, exp *Expense) error
	// UpdateStatus writes status and updated_at only.
	UpdateStatus(ctx context.Context, id int64, status Status, updatedAt time.Time) error
	// DeleteUnlessApproved removes the row only while it is not approved and
	// reports whether a row was removed.
	DeleteUnlessApproved(ctx context.Context, id int64) (bool, error)
}

// Service handles expense business logic
type Service struct {
	repo   Repository
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new expense service. publisher may be nil.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, caller coreuser.Caller, dto CreateExpenseDTO) (*Expense, error) {
	if err := CanAccess(caller, nil, OpCreate).Err(); err != nil {
		s.logger.Warn("create expense denied", "caller_id", caller.ID, "error", err)
		return nil, err
	}

	if verr := dto.Validate(); verr != nil {
		s.logger.Debug("expense validation failed", "caller_id", caller.ID, "error", verr.GetDetailedMessage())
		return nil, verr
	}

	exp := NewExpense(caller.ID, dto, s.now())
	if err := s.repo.Create(ctx, exp); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", caller.ID)
		return nil, s.storeError("create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", exp.ID,
		"user_id", caller.ID,
		"amount", exp.Amount.String(),
		"category", exp.Category)

	s.publish(ctx, events.EventTypeExpenseCreated, exp, caller.ID)
	return exp, nil
}

func (s *Service) Get(ctx context.Context, caller coreuser.Caller, id int64) (*Expense, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(caller, exp, id, OpRead); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Service) ListOwn(ctx context.Context, caller coreuser.Caller, q ListQuery) (*ListResponse, error) {
	if err := CanViewLedger(caller, caller.ID).Err(); err != nil {
		return nil, err
	}

	page, limit := normalizePage(q.Page, q.Limit)
	filter := ListFilter{
		UserID:  &caller.ID,
		Offset:  (page - 1) * limit,
		Limit:   limit,
		OrderBy: OrderByDateDesc,
	}

	if q.Category != "" {
		cat, ok := category.Parse(q.Category)
		if !ok {
			return nil, internal.NewValidationFieldError("category", "unknown category", internal.ErrCodeInvalidCategory)
		}
		filter.Category = &cat
	}
	if q.StartDate != "" {
		d, err := ParseDate(q.StartDate)
		if err != nil {
			return nil, internal.NewValidationFieldError("startDate", err.Error(), internal.ErrCodeInvalidDate)
		}
		filter.StartDate = &d
	}
	if q.EndDate != "" {
		d, err := ParseDate(q.EndDate)
		if err != nil {
			return nil, internal.NewValidationFieldError("endDate", err.Error(), internal.ErrCodeInvalidDate)
		}
		filter.EndDate = &d
	}

	return s.list(ctx, filter, page, limit)
}

func (s *Service) ListAll(ctx context.Context, caller coreuser.Caller, q AdminListQuery) (*ListResponse, error) {
	if err := AuthorizeAdmin(caller).Err(); err != nil {
		s.logger.Warn("list all expenses denied", "caller_id", caller.ID, "error", err)
		return nil, err
	}

	page, limit := normalizePage(q.Page, q.Limit)
	filter := ListFilter{
		Offset:    (page - 1) * limit,
		Limit:     limit,
		OrderBy:   OrderByDateDesc,
		WithOwner: true,
	}

	if q.UserID > 0 {
		filter.UserID = &q.UserID
	}
	if q.Category != "" {
		cat, ok := category.Parse(q.Category)
		if !ok {
			return nil, internal.NewValidationFieldError("category", "unknown category", internal.ErrCodeInvalidCategory)
		}
		filter.Category = &cat
	}
	if q.Status != "" {
		status := Status(q.Status)
		if !status.Valid() {
			return nil, internal.NewValidationFieldError("status", "unknown status", internal.ErrCodeValidationFailed)
		}
		filter.Status = &status
	}

	return s.list(ctx, filter, page, limit)
}

// ListPending returns pending expenses across all users, newest first.
func (s *Service) ListPending(ctx context.Context, caller coreuser.Caller, page, limit int) (*ListResponse, error) {
	if err := AuthorizeAdmin(caller).Err(); err != nil {
		s.logger.Warn("list pending expenses denied", "caller_id", caller.ID, "error", err)
		return nil, err
	}

	page, limit = normalizePage(page, limit)
	pending := StatusPending
	return s.list(ctx, ListFilter{
		Status:    &pending,
		Offset:    (page - 1) * limit,
		Limit:     limit,
		OrderBy:   OrderByCreatedDesc,
		WithOwner: true,
	}, page, limit)
}

func (s *Service) list(ctx context.Context, filter ListFilter, page, limit int) (*ListResponse, error) {
	expenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, s.storeError("list expenses", err)
	}
	if expenses == nil {
		expenses = []*Expense{}
	}
	return &ListResponse{
		Expenses:   expenses,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// Update edits content fields. Owner, id and status are never written, and
// edits are allowed whatever the current status.
func (s *Service) Update(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateExpenseDTO) (*Expense, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(caller, exp, id, OpModify); err != nil {
		return nil, err
	}

	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	updated := exp.Clone()
	updated.ApplyUpdate(dto, s.now())

	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound()
		}
		s.logger.Error("failed to update expense", "error", err, "expense_id", id)
		return nil, s.storeError("update expense", err)
	}

	s.logger.Info("expense updated", "expense_id", id, "caller_id", caller.ID)
	s.publish(ctx, events.EventTypeExpenseUpdated, updated, caller.ID)
	return updated, nil
}

// Delete removes an expense unless it is approved. The store repeats the
// approved check so an approval racing with the delete still wins.
func (s *Service) Delete(ctx context.Context, caller coreuser.Caller, id int64) error {
	exp, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(caller, exp, id, OpDelete); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteUnlessApproved(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return s.storeError("delete expense", err)
	}

	if !deleted {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return internal.ErrExpenseNotFound()
		}
		if err := s.authorize(caller, current, id, OpDelete); err != nil {
			return err
		}
		return internal.NewAccessDeniedError(denyMessages[ReasonApprovedImmutable], string(ReasonApprovedImmutable))
	}

	s.logger.Info("expense deleted", "expense_id", id, "caller_id", caller.ID)
	s.publish(ctx, events.EventTypeExpenseDeleted, exp, caller.ID)
	return nil
}

func (s *Service) Approve(ctx context.Context, caller coreuser.Caller, id int64) (*Expense, error) {
	return s.Transition(ctx, caller, id, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, caller coreuser.Caller, id int64) (*Expense, error) {
	return s.Transition(ctx, caller, id, StatusRejected)
}

// Transition moves an expense through the lifecycle. It is the only path
// that writes status.
func (s *Service) Transition(ctx context.Context, caller coreuser.Caller, id int64, target Status) (*Expense, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := Transition(exp, target, caller, s.now())
	if err != nil {
		s.logger.Warn("expense transition refused",
			"expense_id", id,
			"caller_id", caller.ID,
			"target", target,
			"error", err)
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, updated.Status, updated.UpdatedAt); err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound()
		}
		s.logger.Error("failed to update expense status", "error", err, "expense_id", id)
		return nil, s.storeError("update expense status", err)
	}

	s.logger.Info("expense transitioned",
		"expense_id", id,
		"caller_id", caller.ID,
		"from", exp.Status,
		"to", updated.Status)

	eventType := events.EventTypeExpenseApproved
	if updated.Status == StatusRejected {
		eventType = events.EventTypeExpenseRejected
	}
	s.publish(ctx, eventType, updated, caller.ID)
	return updated, nil
}

// load returns nil without error when the expense does not exist so the
// gate can report it.
func (s *Service) load(ctx context.Context, id int64) (*Expense, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to load expense", "error", err, "expense_id", id)
		return nil, s.storeError("load expense", err)
	}
	return exp, nil
}

func (s *Service) authorize(caller coreuser.Caller, exp *Expense, id int64, op Operation) error {
	decision := CanAccess(caller, exp, op)
	if decision.Allowed {
		return nil
	}
	s.logger.Warn("expense access denied",
		"expense_id", id,
		"caller_id", caller.ID,
		"op", op,
		"reason", decision.Reason)
	return decision.Err()
}

func (s *Service) storeError(action string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewStoreUnavailableError("failed to "+action, err)
}

func (s *Service) publish(ctx context.Context, eventType string, exp *Expense, actorID int64) {
	if s.events == nil {
		return
	}
	event := events.NewExpenseEvent(eventType, exp.ID, exp.UserID, actorID, string(exp.Status), exp.Amount.String())
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish expense event", "event_type", eventType, "expense_id", exp.ID, "error", err)
	}
}
