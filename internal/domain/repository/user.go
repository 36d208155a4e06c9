package repository

import (
	"context"
	"time"
)

// User es el registro de identidad que el broker consume. El identity
// store es el dueño del dato; acá solo se lee.
type User struct {
	ID          string // UUID
	Email       string
	Username    string
	PhoneNumber string
	Role        string
	IsVerified  bool
	MFAEnabled  bool

	// Metadata: atributos adicionales de perfil (bio, address, etc.).
	// Cualquier clave puede ser pedida como claim por un tenant.
	Metadata map[string]any

	CreatedAt time.Time
}

// Attribute resuelve un atributo por nombre, cubriendo tanto los campos
// fijos como Metadata. El segundo retorno indica si el usuario expone
// ese atributo (los tenants pueden pedir claims que un tipo de usuario
// no tiene; eso no es un error).
func (u *User) Attribute(name string) (any, bool) {
	if u == nil {
		return nil, false
	}
	switch name {
	case "user_id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "username":
		return u.Username, true
	case "phone_number":
		return u.PhoneNumber, true
	case "role":
		return u.Role, true
	case "is_verified":
		return u.IsVerified, true
	}
	if v, ok := u.Metadata[name]; ok {
		return v, true
	}
	return nil, false
}

// UserRepository es la vista de solo-lectura sobre el identity store,
// más la verificación de credencial primaria (colaborador externo desde
// el punto de vista del core; el store la implementa con bcrypt).
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// CheckPassword valida la credencial primaria. false ante cualquier
	// falla (usuario sin password, hash inválido, mismatch).
	CheckPassword(ctx context.Context, userID, password string) bool
}
