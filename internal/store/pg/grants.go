package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

func (s *Store) Active(ctx context.Context, tenantID, userID string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx, `
		SELECT is_active FROM service_provider_user
		WHERE serviceprovider_id = $1 AND user_id = $2
	`, tenantID, userID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

func (s *Store) Upsert(ctx context.Context, g *repository.TenantGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO service_provider_user (serviceprovider_id, user_id, is_active, granted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (serviceprovider_id, user_id)
		DO UPDATE SET is_active = EXCLUDED.is_active
	`, g.TenantID, g.UserID, g.IsActive)
	return err
}
