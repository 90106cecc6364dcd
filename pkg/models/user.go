package models

import "time"

// Role is the access level of an admin-panel user.
type Role string

const (
	RoleAdmin       Role = "admin"        // Marketplace staff
	RoleDealerAdmin Role = "dealer_admin" // Manages one dealership
	RoleSalesAgent  Role = "sales_agent"  // Works leads for one dealership
	RoleViewer      Role = "viewer"       // Read-only staff
)

var Roles = []Role{RoleAdmin, RoleDealerAdmin, RoleSalesAgent, RoleViewer}

// RequiresDealership reports whether users with this role must belong to a dealership.
func (r Role) RequiresDealership() bool {
	return r == RoleDealerAdmin || r == RoleSalesAgent
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInvited  UserStatus = "INVITED"
	UserStatusDisabled UserStatus = "DISABLED"
)

// User is a person who can sign in to the admin or dealer dashboards.
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"              validate:"required"`
	LastName     string     `json:"last_name"               validate:"required"`
	Email        string     `json:"email"                   validate:"required,email"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"                    validate:"required,oneof=admin dealer_admin sales_agent viewer"`
	DealershipID string     `json:"dealership_id,omitempty"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}
