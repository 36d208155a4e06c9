package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

// Enrolled devuelve el dispositivo TOTP confirmado del usuario, o
// (nil, nil) si no hay ninguno.
func (s *Store) Enrolled(ctx context.Context, userID string) (*repository.MFADevice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, secret_encrypted, confirmed_at, COALESCE(last_counter, -1), created_at
		FROM user_mfa_totp
		WHERE user_id = $1 AND confirmed_at IS NOT NULL
	`, userID)
	var d repository.MFADevice
	if err := row.Scan(&d.UserID, &d.SecretEncrypted, &d.ConfirmedAt, &d.LastCounter, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) Pending(ctx context.Context, userID string) (*repository.MFADevice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, secret_encrypted, confirmed_at, COALESCE(last_counter, -1), created_at
		FROM user_mfa_totp
		WHERE user_id = $1 AND confirmed_at IS NULL
	`, userID)
	var d repository.MFADevice
	if err := row.Scan(&d.UserID, &d.SecretEncrypted, &d.ConfirmedAt, &d.LastCounter, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) UpsertDevice(ctx context.Context, d *repository.MFADevice) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_mfa_totp (user_id, secret_encrypted, confirmed_at, last_counter)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET secret_encrypted = EXCLUDED.secret_encrypted,
		              confirmed_at = EXCLUDED.confirmed_at,
		              last_counter = EXCLUDED.last_counter
	`, d.UserID, d.SecretEncrypted, d.ConfirmedAt, d.LastCounter)
	return err
}

func (s *Store) MarkUsed(ctx context.Context, userID string, counter int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_mfa_totp SET last_counter = $2, last_used_at = $3 WHERE user_id = $1
	`, userID, counter, at)
	return err
}
