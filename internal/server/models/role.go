package models

// Role names known to the backend. New accounts are granted RoleUser.
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
)

type Role struct {
	ID   int64
	Name string
}
