package entity

// RoleData is the wire form of a role.
type RoleData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
	Position    int    `json:"position"`
	Color       int    `json:"color"`
}

// Role is a guild role.
type Role struct {
	ID          string
	Name        string
	Permissions Permission
	Position    int
	Color       int
}

// NewRole builds a role from wire data.
func NewRole(d RoleData) *Role {
	return &Role{
		ID:          d.ID,
		Name:        d.Name,
		Permissions: ParsePermission(d.Permissions),
		Position:    d.Position,
		Color:       d.Color,
	}
}

// HasPermission reports whether the role grants p. Administrator grants
// everything.
func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions.Has(PermAdministrator) || r.Permissions.Has(p)
}

// Mention returns the mention markup for the role.
func (r *Role) Mention() string {
	return "<@&" + r.ID + ">"
}
