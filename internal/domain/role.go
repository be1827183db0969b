package domain

// Roles carried in the bearer token. A closed set; handlers compare
// against these constants, never free-form strings.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
