package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

type UserRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewUserRepository(db *gorm.DB, queryTimeout time.Duration) *UserRepository {
	return &UserRepository{db: db, queryTimeout: queryTimeout}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRecordNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row)
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"email":      u.Email,
			"photo":      u.Photo,
			"updated_at": u.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) || r.emailTakenByOther(ctx, u.ID, u.Email) {
			return internal.ErrDuplicateEmail
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
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

func (r *UserRepository) emailTakenByOther(ctx context.Context, id int64, email string) bool {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("email = ? AND id <> ?", email, id).
		Count(&count).Error
	return err == nil && count > 0
}
