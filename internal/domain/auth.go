package domain

// Role differentiates owners from operators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the verified caller identity supplied by the identity provider.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal may perform operator actions.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
