package stats

import (
	"context"
	"log/slog"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// UserRef is the display identity attached to ranked users.
type UserRef struct {
	ID    int64
	Name  string
	Email string
}

// Repository reads the ledger for aggregation. ScanLedger calls fn for each
// expense in id order, restricted to one owner when userID is set, and stops
// at the first error fn returns.
type Repository interface {
	ScanLedger(ctx context.Context, userID *int64, fn func(Row) error) error
	CountUsers(ctx context.Context) (int64, error)
	FindUsers(ctx context.Context, ids []int64) (map[int64]UserRef, error)
}

type Service struct {
	repo     Repository
	topUsers int
	logger   *slog.Logger
}

func NewService(repo Repository, topUsers int, logger *slog.Logger) *Service {
	if topUsers <= 0 {
		topUsers = internal.DefaultTopUsers
	}
	return &Service{
		repo:     repo,
		topUsers: topUsers,
		logger:   logger,
	}
}

// UserStats summarizes one user's ledger across every status.
func (s *Service) UserStats(ctx context.Context, caller coreuser.Caller, userID int64) (*UserStats, error) {
	if err := expense.CanViewLedger(caller, userID).Err(); err != nil {
		s.logger.Warn("user stats denied", "caller_id", caller.ID, "user_id", userID, "error", err)
		return nil, err
	}

	agg := NewAggregator()
	if err := s.repo.ScanLedger(ctx, &userID, addTo(agg)); err != nil {
		s.logger.Error("failed to scan ledger", "error", err, "user_id", userID)
		return nil, s.storeError("read user ledger", err)
	}

	return &UserStats{
		Stats:      agg.Summary(),
		ByCategory: agg.ByCategory(),
	}, nil
}

// SystemStats summarizes the whole ledger. Admin only.
func (s *Service) SystemStats(ctx context.Context, caller coreuser.Caller) (*SystemStats, error) {
	if err := expense.AuthorizeAdmin(caller).Err(); err != nil {
		s.logger.Warn("system stats denied", "caller_id", caller.ID, "error", err)
		return nil, err
	}

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, s.storeError("count users", err)
	}

	agg := NewAggregator()
	if err := s.repo.ScanLedger(ctx, nil, addTo(agg)); err != nil {
		s.logger.Error("failed to scan ledger", "error", err)
		return nil, s.storeError("read ledger", err)
	}

	top := agg.TopUsers(s.topUsers)
	if len(top) > 0 {
		ids := make([]int64, len(top))
		for i, u := range top {
			ids[i] = u.UserID
		}
		refs, err := s.repo.FindUsers(ctx, ids)
		if err != nil {
			s.logger.Error("failed to resolve top users", "error", err)
			return nil, s.storeError("resolve users", err)
		}
		for i := range top {
			if ref, ok := refs[top[i].UserID]; ok {
				top[i].UserName = ref.Name
				top[i].UserEmail = ref.Email
			}
		}
	}

	summary := agg.Summary()
	return &SystemStats{
		TotalUsers:    users,
		TotalExpenses: agg.Count(),
		Stats: SystemTotals{
			TotalAmount: summary.Total,
			Average:     summary.Average,
		},
		ByCategory: agg.ByCategory(),
		TopUsers:   top,
	}, nil
}

func addTo(agg *Aggregator) func(Row) error {
	return func(r Row) error {
		agg.Add(r)
		return nil
	}
}

func (s *Service) storeError(action string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewStoreUnavailableError("failed to "+action, err)
}
