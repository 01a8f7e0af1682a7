package auth

import (
	"strings"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

const MinPasswordLength = 6

type RegisterDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d RegisterDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(MinPasswordLength)
	return v.Validate()
}

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	return v.Validate()
}

// ResetPasswordDTO sets a new password for the account with the given email.
type ResetPasswordDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d ResetPasswordDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(MinPasswordLength)
	return v.Validate()
}

type AccountResponse struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  coreuser.Role `json:"role"`
}

type AuthResponse struct {
	AuthTokens
	User AccountResponse `json:"user"`
}

func toAccountResponse(a *coreuser.Account) AccountResponse {
	return AccountResponse{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	}
}

// NormalizeEmail lower-cases and trims an address so lookups match.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
