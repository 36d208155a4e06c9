package repository

import (
	"context"
	"time"
)

// PasswordlessChallenge: código de un solo uso, a lo sumo uno vivo por
// usuario. Una vez is_used=true o attempts >= max el challenge está
// muerto de forma permanente (ni el código correcto valida).
type PasswordlessChallenge struct {
	UserID     string
	HashedCode string // sha256 hex; el código en claro nunca se persiste
	IsUsed     bool
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// ChallengeOutcome describe qué le pasó al challenge en un Redeem.
type ChallengeOutcome int

const (
	ChallengeConsumed ChallengeOutcome = iota
	ChallengeMissing
	ChallengeAlreadyUsed
	ChallengeExpired
	ChallengeExhausted
	ChallengeCodeMismatch
)

// ChallengeRepository persiste challenges passwordless.
type ChallengeRepository interface {
	// Replace borra cualquier challenge previo del usuario e inserta el
	// nuevo (invariante de un solo challenge vivo).
	Replace(ctx context.Context, ch *PasswordlessChallenge) error

	// Redeem evalúa y muta el challenge en UNA sola operación atómica
	// por usuario: si está vivo (no usado, no expirado a `now`, attempts
	// bajo `maxAttempts`) y el hash coincide lo consume; si está vivo y
	// no coincide incrementa attempts; si está muerto o no existe no
	// toca nada. El outcome describe el estado observado en esa misma
	// operación: un Replace concurrente nunca puede colarse entre el
	// chequeo y el incremento (en pg: un único statement con lock de
	// fila; en memory: mutex del store).
	Redeem(ctx context.Context, userID, hashedCode string, now time.Time, maxAttempts int) (ChallengeOutcome, error)
}
