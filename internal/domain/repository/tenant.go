package repository

import (
	"context"
	"time"
)

// ServiceProvider es un tenant: una aplicación downstream que confía en
// los tokens emitidos por el broker para sus propios usuarios.
type ServiceProvider struct {
	ID   string // UUID
	Name string

	// ClaimsRequired: solo importan las KEYS (actúa como set). El valor
	// se ignora; se mantiene el mapping por compatibilidad de formato.
	ClaimsRequired map[string]any

	RedirectURL string

	// SecretCiphertext: secreto de firma, SOLO en forma cifrada
	// (secretbox). Vacío = tenant inutilizable para firmar.
	SecretCiphertext string

	CreatedAt time.Time
}

// HasSecret indica si el tenant tiene un secreto persistido (cifrado).
func (sp *ServiceProvider) HasSecret() bool {
	return sp != nil && sp.SecretCiphertext != ""
}

type TenantRepository interface {
	Get(ctx context.Context, id string) (*ServiceProvider, error)
	Create(ctx context.Context, sp *ServiceProvider) error

	// SetSecretIfAbsent persiste el ciphertext solo si el tenant aún no
	// tiene secreto. Devuelve true si esta llamada lo escribió. Bajo
	// accesos concurrentes exactamente un generador gana.
	SetSecretIfAbsent(ctx context.Context, id, ciphertext string) (bool, error)
}
