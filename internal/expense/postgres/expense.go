package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB, queryTimeout time.Duration) *ExpenseRepository {
	return &ExpenseRepository{db: db, queryTimeout: queryTimeout}
}

var _ expense.Repository = (*ExpenseRepository)(nil)

// Create saves a new expense to the database
func (r *ExpenseRepository) Create(ctx context.Context, exp *expense.Expense) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	row := expense.ToDataModel(exp)
	if err := r.db.WithContext(ctx).Omit("User").Create(row).Error; err != nil {
		return err
	}
	exp.ID = row.ID
	exp.CreatedAt = row.CreatedAt
	exp.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var row expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRecordNotFound
		}
		return nil, err
	}
	return expense.FromDataModel(&row)
}

// List returns one page of matching expenses and the total match count.
func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.OrderBy {
	case expense.OrderByCreatedDesc:
		query = query.Order("created_at DESC").Order("id DESC")
	default:
		query = query.Order("date DESC").Order("id DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if filter.WithOwner {
		query = query.Preload("User")
	}

	var rows []*expenseDatamodel.Expense
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	expenses, err := expense.FromDataModelSlice(rows)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// Update writes the editable content columns only; owner and status are
// left as stored.
func (r *ExpenseRepository) Update(ctx context.Context, exp *expense.Expense) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	row := expense.ToDataModel(exp)
	result := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ?", exp.ID).
		Updates(map[string]interface{}{
			"amount":         row.Amount,
			"category":       row.Category,
			"description":    row.Description,
			"date":           row.Date,
			"payment_method": row.PaymentMethod,
			"tags":           row.Tags,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus updates only the status and updated_at fields of an expense
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int64, status expense.Status, updatedAt time.Time) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

// DeleteUnlessApproved deletes in a single statement guarded on status, so a
// concurrent approval cannot be lost.
func (r *ExpenseRepository) DeleteUnlessApproved(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, string(expense.StatusApproved)).
		Delete(&expenseDatamodel.Expense{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
