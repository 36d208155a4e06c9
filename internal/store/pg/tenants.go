package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

func (s *Store) Get(ctx context.Context, id string) (*repository.ServiceProvider, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, claims_required, redirect_url, COALESCE(secret_ciphertext, ''), created_at
		FROM service_provider WHERE id = $1
	`, id)
	var sp repository.ServiceProvider
	if err := row.Scan(&sp.ID, &sp.Name, &sp.ClaimsRequired, &sp.RedirectURL,
		&sp.SecretCiphertext, &sp.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Store) Create(ctx context.Context, sp *repository.ServiceProvider) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO service_provider (id, name, claims_required, redirect_url, secret_ciphertext)
		VALUES ($1, $2, $3, $4, NULLIF($5,''))
	`, sp.ID, sp.Name, sp.ClaimsRequired, sp.RedirectURL, sp.SecretCiphertext)
	return err
}

// SetSecretIfAbsent: un único UPDATE condicional decide la carrera entre
// procesos; exactamente un generador gana.
func (s *Store) SetSecretIfAbsent(ctx context.Context, id, ciphertext string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE service_provider SET secret_ciphertext = $2
		WHERE id = $1 AND secret_ciphertext IS NULL
	`, id, ciphertext)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	// 0 filas: o ya tenía secreto, o el tenant no existe.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM service_provider WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, repository.ErrNotFound
	}
	return false, nil
}
