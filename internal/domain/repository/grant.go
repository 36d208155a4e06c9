package repository

import (
	"context"
	"time"
)

// TenantGrant: autorización (tenant, user). Único por par; ausencia o
// is_active=false significa que el usuario NO recibe tokens para ese
// tenant, sin importar la validez de su credencial.
type TenantGrant struct {
	TenantID  string
	UserID    string
	IsActive  bool
	GrantedAt time.Time
}

type GrantRepository interface {
	// Active devuelve true solo si existe un grant con is_active=true.
	Active(ctx context.Context, tenantID, userID string) (bool, error)

	// Upsert crea o reactiva el grant del par (tenant, user).
	Upsert(ctx context.Context, g *TenantGrant) error
}
