package user

import (
	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
)

// UpdateProfileDTO is a partial profile update; nil fields are left alone.
type UpdateProfileDTO struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (d UpdateProfileDTO) IsEmpty() bool {
	return d.Name == nil && d.Email == nil
}

func (d UpdateProfileDTO) Validate() *internal.AppError {
	if d.IsEmpty() {
		return internal.NewValidationError("Please provide data to update", internal.ErrCodeEmptyUpdate)
	}

	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(100)
	}
	if d.Email != nil {
		v.Field("email", d.Email).Required().Email()
	}
	return v.Validate()
}

type ListUsersResponse struct {
	Count int     `json:"count"`
	Users []*User `json:"users"`
}
