package user

import (
	"fmt"
	"time"

	internal "github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
)

// User is the profile view of an account. The password hash never leaves
// the auth package.
type User struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      coreuser.Role `json:"role"`
	IsActive  bool          `json:"is_active"`
	Photo     *string       `json:"photo,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func FromDataModel(u *userDatamodel.User) (*User, error) {
	role := coreuser.Role(u.Role)
	if !role.Valid() {
		return nil, internal.NewDataIntegrityError(fmt.Sprintf("user %d has unknown role %q", u.ID, u.Role))
	}
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      role,
		IsActive:  u.IsActive,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

func FromDataModelSlice(rows []*userDatamodel.User) ([]*User, error) {
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		u, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
