package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

// Replace borra el challenge previo del usuario e inserta el nuevo, en
// una transacción (invariante: a lo sumo un challenge vivo por usuario;
// UNIQUE(user_id) lo respalda en el schema).
func (s *Store) Replace(ctx context.Context, ch *repository.PasswordlessChallenge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM passwordless_challenge WHERE user_id = $1`, ch.UserID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO passwordless_challenge (user_id, hashed_code, is_used, attempts, created_at, expires_at)
		VALUES ($1, $2, FALSE, 0, $3, $4)
	`, ch.UserID, ch.HashedCode, ch.CreatedAt, ch.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Redeem: consumo y accounting de intentos en UN solo statement. El
// FOR UPDATE serializa contra Redeems y Replaces concurrentes, así un
// fallo jamás puede quemarle un intento a un challenge recién emitido.
func (s *Store) Redeem(ctx context.Context, userID, hashedCode string, now time.Time, maxAttempts int) (repository.ChallengeOutcome, error) {
	row := s.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT user_id, hashed_code, is_used, attempts, expires_at
			FROM passwordless_challenge
			WHERE user_id = $1
			FOR UPDATE
		), upd AS (
			UPDATE passwordless_challenge c SET
				is_used = prev.is_used
					OR (prev.hashed_code = $2 AND prev.attempts < $3 AND prev.expires_at > $4),
				attempts = prev.attempts + CASE
					WHEN NOT prev.is_used AND prev.attempts < $3 AND prev.expires_at > $4 AND prev.hashed_code <> $2
					THEN 1 ELSE 0 END
			FROM prev
			WHERE c.user_id = prev.user_id
		)
		SELECT prev.hashed_code = $2, prev.is_used, prev.attempts, prev.expires_at FROM prev
	`, userID, hashedCode, maxAttempts, now)

	var (
		match    bool
		used     bool
		attempts int
		expires  time.Time
	)
	if err := row.Scan(&match, &used, &attempts, &expires); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ChallengeMissing, nil
		}
		return repository.ChallengeMissing, err
	}
	switch {
	case used:
		return repository.ChallengeAlreadyUsed, nil
	case !expires.After(now):
		return repository.ChallengeExpired, nil
	case attempts >= maxAttempts:
		return repository.ChallengeExhausted, nil
	case match:
		return repository.ChallengeConsumed, nil
	default:
		return repository.ChallengeCodeMismatch, nil
	}
}
