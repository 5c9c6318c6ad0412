package model

// Role is the numeric role id stored in usuarios.rol_id and carried in
// tokens.  The set is closed; ids match the rows seeded in the roles table.
type Role int

const (
	RoleCeo             Role = 4
	RoleAdmin           Role = 5
	RoleStockController Role = 6
	RoleUnassigned      Role = 7
)

// StaffRoles are the roles allowed to work with a company's inventory.
var StaffRoles = []Role{RoleCeo, RoleStockController, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleCeo, RoleAdmin, RoleStockController, RoleUnassigned:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleCeo:
		return "Ceo"
	case RoleAdmin:
		return "Admin"
	case RoleStockController:
		return "StockController"
	case RoleUnassigned:
		return "Unassigned"
	}
	return "Unknown"
}
