// Package claims proyecta atributos de usuario al payload del token
// según la política del tenant (claims_required).
package claims

import (
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

// Project arma el subset de claims para (user, tenant): por cada KEY de
// claims_required, si el usuario expone un atributo con ese nombre se
// incluye normalizado. Claves desconocidas se saltean en silencio (los
// tenants pueden pedir atributos que un tipo de usuario no tiene).
//
// Se re-ejecuta en CADA mint — refresh incluido — para que atributos
// revocados o cambiados se propaguen; nunca reusar una proyección vieja.
func Project(u *repository.User, sp *repository.ServiceProvider) map[string]any {
	out := map[string]any{}
	if u == nil || sp == nil {
		return out
	}
	for key := range sp.ClaimsRequired {
		if v, ok := u.Attribute(key); ok {
			out[key] = Normalize(v)
		}
	}
	return out
}

// Normalize convierte valores no JSON-nativos a formas serializables,
// recursivamente a través de mappings y secuencias anidadas.
func Normalize(v any) any {
	switch t := v.(type) {
	case uuid.UUID:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}
