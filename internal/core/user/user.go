package user

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Caller is the authenticated subject attributed to an inbound operation.
// It is handed to every core operation explicitly.
type Caller struct {
	ID     int64
	Email  string
	Role   Role
	Active bool
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

func (c Caller) Owns(ownerID int64) bool {
	return c.ID != 0 && c.ID == ownerID
}

// Account is the persisted view of a user used by authentication.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

func (a *Account) Caller() Caller {
	return Caller{
		ID:     a.ID,
		Email:  a.Email,
		Role:   a.Role,
		Active: a.IsActive,
	}
}
