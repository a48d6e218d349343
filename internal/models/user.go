package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleUser       UserRole = "USER"
)

// Valid reports whether the role is a member of the closed role set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// CanManageUsers reports whether the role may access admin user management.
func (r UserRole) CanManageUsers() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

// CanAssignRoles reports whether the role may change another user's role.
func (r UserRole) CanAssignRoles() bool {
	return r == RoleSuperAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UserInfo is the password-free projection returned by admin listings.
type UserInfo struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Role      UserRole `json:"role"`
}

// Info strips credential material from a user record.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Skip       int `json:"skip"`
	Take       int `json:"take"`
	TotalCount int `json:"totalCount"`
}
