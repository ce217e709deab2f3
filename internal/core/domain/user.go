package domain

import "time"

const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleCounselor  = "counselor"
)

// User is the minimal projection of an account this subsystem needs: identity,
// display name, email, and the role classification used for access decisions.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Principal is the authenticated actor behind a request, as extracted from the
// bearer token.
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Elevated reports whether the principal's role bypasses per-lead ownership
// checks.
func (p Principal) Elevated() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}
