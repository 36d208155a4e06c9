// Package passwordless implementa el login por código de un solo uso
// enviado por email. Nunca persiste el código en claro: solo su sha256.
package passwordless

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	tokens "github.com/dropDatabas3/ssojohn/internal/security/token"
)

const codeDigits = 6

// Reason clasifica por qué falló una verificación. Solo para logs y
// métricas: hacia el caller todas las fallas son indistinguibles.
type Reason string

const (
	ReasonOK          Reason = "ok"
	ReasonNoChallenge Reason = "no_challenge"
	ReasonExpired     Reason = "expired"
	ReasonUsed        Reason = "already_used"
	ReasonExhausted   Reason = "attempts_exhausted"
	ReasonMismatch    Reason = "code_mismatch"
)

type Authenticator struct {
	challenges  repository.ChallengeRepository
	codeTTL     time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewAuthenticator(challenges repository.ChallengeRepository, codeTTL time.Duration, maxAttempts int) *Authenticator {
	return &Authenticator{
		challenges:  challenges,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue genera un código fresco de 6 dígitos, reemplaza cualquier
// challenge previo del usuario y devuelve el código en claro para que
// el caller lo envíe. Emitir de nuevo invalida el código anterior.
func (a *Authenticator) Issue(ctx context.Context, userID string) (string, error) {
	code, err := tokens.GenerateNumericCode(codeDigits)
	if err != nil {
		return "", fmt.Errorf("passwordless: generate code: %w", err)
	}
	now := a.now()
	ch := &repository.PasswordlessChallenge{
		UserID:     userID,
		HashedCode: tokens.SHA256Hex(code),
		CreatedAt:  now,
		ExpiresAt:  now.Add(a.codeTTL),
	}
	if err := a.challenges.Replace(ctx, ch); err != nil {
		return "", fmt.Errorf("passwordless: store challenge: %w", err)
	}
	logger.From(ctx).Info("passwordless code issued",
		logger.Component("passwordless"),
		logger.UserID(userID),
	)
	return code, nil
}

// Verify consume el challenge si el código es correcto y el challenge
// sigue vivo. El código equivocado gasta un intento en la MISMA
// operación de store que lo detecta: nunca puede quemarle un intento a
// un challenge emitido en el medio. Hacia el caller toda falla es
// indistinguible; la Reason es solo para observabilidad.
func (a *Authenticator) Verify(ctx context.Context, userID, code string) (bool, Reason, error) {
	out, err := a.challenges.Redeem(ctx, userID, tokens.SHA256Hex(code), a.now(), a.maxAttempts)
	if err != nil {
		return false, "", fmt.Errorf("passwordless: redeem: %w", err)
	}
	if out == repository.ChallengeConsumed {
		return true, ReasonOK, nil
	}
	reason := reasonFor(out)
	logger.From(ctx).Info("passwordless verification failed",
		logger.Component("passwordless"),
		logger.UserID(userID),
		logger.String("reason", string(reason)),
	)
	return false, reason, nil
}

func reasonFor(out repository.ChallengeOutcome) Reason {
	switch out {
	case repository.ChallengeMissing:
		return ReasonNoChallenge
	case repository.ChallengeAlreadyUsed:
		return ReasonUsed
	case repository.ChallengeExpired:
		return ReasonExpired
	case repository.ChallengeExhausted:
		return ReasonExhausted
	default:
		return ReasonMismatch
	}
}
