package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	internal "github.com/frahmantamala/expense-tracker/internal"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

// AccountRepository stores login accounts. Missing rows return
// internal.ErrRecordNotFound and duplicate emails internal.ErrDuplicateEmail.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*coreuser.Account, error)
	GetByID(ctx context.Context, id int64) (*coreuser.Account, error)
	Create(ctx context.Context, account *coreuser.Account) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo           AccountRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

// NewService creates a new auth service. A zero bcryptCost uses the library
// default.
func NewService(repo AccountRepository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Register creates an active account with the user role and signs it in.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	dto.Email = NormalizeEmail(dto.Email)
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	account := &coreuser.Account{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         coreuser.RoleUser,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, internal.ErrDuplicateEmail) {
			return nil, internal.NewConflictError("User already exists with this email", internal.ErrCodeEmailTaken)
		}
		s.logger.Error("failed to create account", "error", err)
		return nil, storeError("create account", err)
	}

	s.logger.Info("account registered", "user_id", account.ID)
	return s.signIn(account)
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	dto.Email = NormalizeEmail(dto.Email)
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	account, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrInvalidCredentials()
		}
		s.logger.Error("failed to load account", "error", err)
		return nil, storeError("load account", err)
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed", "user_id", account.ID)
		return nil, internal.ErrInvalidCredentials()
	}

	if !account.IsActive {
		s.logger.Warn("login refused for inactive account", "user_id", account.ID)
		return nil, internal.ErrUserInactive()
	}

	return s.signIn(account)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, tokenError(err)
	}

	account, err := s.accountForClaims(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}
	if !account.IsActive {
		return AuthTokens{}, internal.ErrUserInactive()
	}

	return s.issue(account)
}

// ResetPassword replaces the password of the account registered under email.
// No reset token is required, so callers must not expose it to untrusted clients.
func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	dto.Email = NormalizeEmail(dto.Email)
	if verr := dto.Validate(); verr != nil {
		return verr
	}

	account, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return internal.ErrUserNotFound()
		}
		return storeError("load account", err)
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return internal.ErrUserNotFound()
		}
		s.logger.Error("failed to update password", "error", err, "user_id", account.ID)
		return storeError("update password", err)
	}

	s.logger.Info("password reset", "user_id", account.ID)
	return nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, tokenError(err)
	}
	return claims, nil
}

// Identify resolves an access token to the caller it was issued to. The
// account is reloaded so role and active changes apply immediately.
func (s *Service) Identify(ctx context.Context, tokenString string) (coreuser.Caller, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return coreuser.Caller{}, err
	}
	account, err := s.accountForClaims(ctx, claims)
	if err != nil {
		return coreuser.Caller{}, err
	}
	return account.Caller(), nil
}

func (s *Service) accountForClaims(ctx context.Context, claims *Claims) (*coreuser.Account, error) {
	id, err := claims.ID()
	if err != nil {
		return nil, internal.ErrInvalidToken()
	}
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrRecordNotFound) {
			return nil, internal.ErrInvalidToken()
		}
		s.logger.Error("failed to load account", "error", err, "user_id", id)
		return nil, storeError("load account", err)
	}
	return account, nil
}

func (s *Service) signIn(account *coreuser.Account) (*AuthResponse, error) {
	tokens, err := s.issue(account)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AuthTokens: tokens, User: toAccountResponse(account)}, nil
}

func (s *Service) issue(account *coreuser.Account) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(account)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(account)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func storeError(action string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewStoreUnavailableError("failed to "+action, err)
}

func tokenError(err error) error {
	if errors.Is(err, ErrTokenExpired) {
		return internal.ErrTokenExpired()
	}
	return internal.ErrInvalidToken()
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
