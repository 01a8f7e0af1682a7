package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

// AccountRepository reads and writes login accounts in the users table.
type AccountRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewAccountRepository(db *gorm.DB, queryTimeout time.Duration) *AccountRepository {
	return &AccountRepository{db: db, queryTimeout: queryTimeout}
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*coreuser.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*coreuser.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *AccountRepository) first(ctx context.Context, query string, arg interface{}) (*coreuser.Account, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRecordNotFound
		}
		return nil, err
	}
	return toAccount(&row)
}

func (r *AccountRepository) Create(ctx context.Context, account *coreuser.Account) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	row := &userDatamodel.User{
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		IsActive:     account.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || r.emailTaken(ctx, account.Email) {
			return internal.ErrDuplicateEmail
		}
		return err
	}
	account.ID = row.ID
	account.CreatedAt = row.CreatedAt
	return nil
}

// emailTaken covers drivers whose unique violations are not translated.
func (r *AccountRepository) emailTaken(ctx context.Context, email string) bool {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("email = ?", email).Count(&count).Error
	return err == nil && count > 0
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

func toAccount(row *userDatamodel.User) (*coreuser.Account, error) {
	role := coreuser.Role(row.Role)
	if !role.Valid() {
		return nil, internal.NewDataIntegrityError(fmt.Sprintf("user %d has unknown role %q", row.ID, row.Role))
	}
	return &coreuser.Account{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         role,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
	}, nil
}
