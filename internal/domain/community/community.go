package community

// Community is read-only here; it is created and edited elsewhere on the platform.
type Community struct {
	ID      string
	Name    string
	Slug    string
	OwnerID string
}

// Role is a user's administrative relation to a community.
type Role string

const (
	RoleNone      Role = ""
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
)

// BypassesTiers reports roles that see every gated feature regardless of membership.
func (r Role) BypassesTiers() bool {
	return r == RoleOwner || r == RoleModerator
}
