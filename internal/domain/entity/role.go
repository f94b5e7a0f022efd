package entity

// Role names
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)
