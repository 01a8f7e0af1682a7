package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// Repository stores user profiles. Missing rows return
// internal.ErrRecordNotFound and duplicate emails internal.ErrDuplicateEmail.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// UpdateProfile writes name, email, photo and updated_at only.
	UpdateProfile(ctx context.Context, u *User) error
	SetActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error
}

type Service struct {
	repo   Repository
	photos PhotoStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, photos PhotoStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		photos: photos,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) GetProfile(ctx context.Context, caller coreuser.Caller) (*User, error) {
	return s.load(ctx, caller.ID)
}

// UpdateProfile changes the caller's own name or email. Role and active flag
// are never written here.
func (s *Service) UpdateProfile(ctx context.Context, caller coreuser.Caller, dto UpdateProfileDTO) (*User, error) {
	if dto.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*dto.Email))
		dto.Email = &normalized
	}
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	u.UpdatedAt = s.now()

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", u.ID)
	return u, nil
}

// UpdatePhoto stores a new profile photo and drops the previous one.
func (s *Service) UpdatePhoto(ctx context.Context, caller coreuser.Caller, photo io.Reader) (*User, error) {
	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	publicPath, err := s.photos.Save(ctx, photo)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to store photo", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to store photo", err)
	}

	previous := u.Photo
	u.Photo = &publicPath
	u.UpdatedAt = s.now()

	if err := s.save(ctx, u); err != nil {
		_ = s.photos.Delete(ctx, publicPath)
		return nil, err
	}

	if previous != nil {
		if err := s.photos.Delete(ctx, *previous); err != nil {
			s.logger.Warn("failed to remove old photo", "error", err, "user_id", u.ID, "photo", *previous)
		}
	}

	s.logger.Info("profile photo updated", "user_id", u.ID)
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, caller coreuser.Caller) (*ListUsersResponse, error) {
	if err := expense.AuthorizeAdmin(caller).Err(); err != nil {
		s.logger.Warn("list users denied", "caller_id", caller.ID, "error", err)
		return nil, err
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, storeError("list users", err)
	}
	return &ListUsersResponse{Count: len(users), Users: users}, nil
}

// Deactivate disables an account without deleting it or its expenses.
func (s *Service) Deactivate(ctx context.Context, caller coreuser.Caller, userID int64) (*User, error) {
	if err := expense.AuthorizeAdmin(caller).Err(); err != nil {
		s.logger.Warn("deactivate user denied", "caller_id", caller.ID, "user_id", userID, "error", err)
		return nil, err
	}

	if err := s.repo.SetActive(ctx, userID, false, s.now()); err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound()
		}
		s.logger.Error("failed to deactivate user", "error", err, "user_id", userID)
		return nil, storeError("deactivate user", err)
	}

	s.logger.Info("user deactivated", "user_id", userID, "caller_id", caller.ID)
	return s.load(ctx, userID)
}

func (s *Service) load(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound()
		}
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, storeError("load user", err)
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *User) error {
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		switch {
		case errors.Is(err, internal.ErrDuplicateEmail):
			return internal.NewConflictError("Email is already in use", internal.ErrCodeEmailTaken)
		case errors.Is(err, internal.ErrRecordNotFound):
			return internal.ErrUserNotFound()
		}
		s.logger.Error("failed to update user", "error", err, "user_id", u.ID)
		return storeError("update user", err)
	}
	return nil
}

func storeError(action string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewStoreUnavailableError("failed to "+action, err)
}
