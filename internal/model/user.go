package model

import "time"

// User mirrors a row of the `usuarios` table.  Nullable columns are
// pointers: CompanyID and RoleID stay nil until the user creates or joins a
// company, RefreshTokenHash is nil while no session is open.
type User struct {
	ID               int64     // usuarios.usuario_id
	Name             string    // usuarios.nombre
	LastName         string    // usuarios.apellidos
	Email            string    // usuarios.email (unique)
	Phone            string    // usuarios.telefono (unique)
	PasswordHash     string    // usuarios.contrasena (bcrypt)
	CompanyID        *int64    // usuarios.empresa_id
	RoleID           *Role     // usuarios.rol_id
	RefreshTokenHash *string   // usuarios.credencial_renovacion
	CreatedAt        time.Time // usuarios.fecha
}

// Profile returns the public view of the user.
func (u User) Profile() UserProfile {
	return UserProfile{
		UserID:    u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		CompanyID: u.CompanyID,
		RolID:     u.RoleID,
	}
}

// UserProfile is the non-secret subset of a user returned to clients.  It
// never contains the password or refresh-token hashes.
type UserProfile struct {
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	CompanyID *int64 `json:"companyId"`
	RolID     *Role  `json:"rolId"`
}

// NewUser carries the fields needed to register an account.
type NewUser struct {
	Name         string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
}

// CompanyUser is a member row as listed to company staff.
type CompanyUser struct {
	ID       int64  `json:"userId"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	RoleID   *Role  `json:"rolId"`
	Role     string `json:"role"`
}
