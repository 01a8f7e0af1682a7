package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/stats"
)

// StatsRepository reads the ledger through sqlx so the same queries run on
// postgres and sqlite handles.
type StatsRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewStatsRepository(db *sqlx.DB, queryTimeout time.Duration) *StatsRepository {
	return &StatsRepository{db: db, queryTimeout: queryTimeout}
}

var _ stats.Repository = (*StatsRepository)(nil)

type ledgerRow struct {
	ID       int64           `db:"id"`
	UserID   int64           `db:"user_id"`
	Amount   decimal.Decimal `db:"amount"`
	Category string          `db:"category"`
}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r *StatsRepository) ScanLedger(ctx context.Context, userID *int64, fn func(stats.Row) error) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := "SELECT id, user_id, amount, category FROM expenses"
	var args []interface{}
	if userID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row ledgerRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("scan ledger row: %w", err)
		}
		cat, ok := category.Parse(row.Category)
		if !ok {
			return internal.NewDataIntegrityError(fmt.Sprintf("expense %d has unknown category %q", row.ID, row.Category))
		}
		if err := fn(stats.Row{ID: row.ID, UserID: row.UserID, Amount: row.Amount, Category: cat}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}
	return nil
}

func (r *StatsRepository) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// FindUsers resolves display identities in one query. Unknown ids are
// absent from the result.
func (r *StatsRepository) FindUsers(ctx context.Context, ids []int64) (map[int64]stats.UserRef, error) {
	refs := make(map[int64]stats.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := sqlx.In("SELECT id, name, email FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, u := range rows {
		refs[u.ID] = stats.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return refs, nil
}
