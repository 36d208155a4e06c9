// Package mfa implementa el segundo factor TOTP que condiciona la
// emisión de tokens. Falla cerrado: si el usuario exige MFA y algo en
// la cadena no cuadra (sin dispositivo, secreto indescifrable), el
// código NO valida.
package mfa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	"github.com/dropDatabas3/ssojohn/internal/security/totp"
)

type Gate struct {
	devices repository.MFADeviceRepository
	box     *secretbox.Box
	window  int // steps de 30s hacia cada lado
	now     func() time.Time
}

func NewGate(devices repository.MFADeviceRepository, box *secretbox.Box, window int) *Gate {
	if window <= 0 {
		window = 1
	}
	return &Gate{devices: devices, box: box, window: window, now: time.Now}
}

// Required: el flag vive en el usuario, no en el dispositivo. Un
// usuario con is_mfa_enabled y sin dispositivo enrolado queda bloqueado
// (fallar cerrado), no exento.
func (g *Gate) Required(u *repository.User) bool {
	return u != nil && u.MFAEnabled
}

// Verify valida el código TOTP del usuario. Si el usuario no exige MFA
// pasa trivialmente, con o sin código. Devuelve false ante cualquier
// anomalía; nunca degrada a "sin MFA".
func (g *Gate) Verify(ctx context.Context, u *repository.User, code string) (bool, error) {
	if !g.Required(u) {
		return true, nil
	}
	if strings.TrimSpace(code) == "" {
		return false, nil
	}

	d, err := g.devices.Enrolled(ctx, u.ID)
	if err != nil {
		return false, fmt.Errorf("mfa: load device: %w", err)
	}
	if d == nil {
		logger.From(ctx).Warn("mfa required but no enrolled device",
			logger.Component("mfa.gate"),
			logger.UserID(u.ID),
		)
		return false, nil
	}

	secret, err := g.secretFor(ctx, d)
	if err != nil {
		return false, nil
	}

	ok, counter := totp.Verify(secret, code, g.now(), g.window, d.LastCounter)
	if !ok {
		return false, nil
	}
	// Persistir el counter aceptado: el mismo código no puede entrar dos
	// veces ni desde otra sesión.
	if err := g.devices.MarkUsed(ctx, u.ID, counter, g.now()); err != nil {
		return false, fmt.Errorf("mfa: mark counter: %w", err)
	}
	return true, nil
}

// Enroll genera un secreto nuevo para el usuario, lo guarda cifrado y
// sin confirmar, y devuelve el base32 y la URL otpauth para el QR. El
// dispositivo no cuenta hasta Confirm.
func (g *Gate) Enroll(ctx context.Context, userID, issuer, accountName string) (secretB32, otpauthURL string, err error) {
	_, b32, err := totp.GenerateSecret()
	if err != nil {
		return "", "", fmt.Errorf("mfa: generate secret: %w", err)
	}
	ct, err := g.box.Encrypt(b32)
	if err != nil {
		return "", "", fmt.Errorf("mfa: encrypt secret: %w", err)
	}
	d := &repository.MFADevice{
		UserID:          userID,
		SecretEncrypted: ct,
		LastCounter:     -1,
	}
	if err := g.devices.UpsertDevice(ctx, d); err != nil {
		return "", "", fmt.Errorf("mfa: store device: %w", err)
	}
	return b32, totp.OTPAuthURL(issuer, accountName, b32), nil
}

// Confirm valida el primer código contra el dispositivo pendiente y lo
// marca confirmado.
func (g *Gate) Confirm(ctx context.Context, userID, code string) (bool, error) {
	d, err := g.devices.Pending(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("mfa: load pending device: %w", err)
	}
	if d == nil {
		return false, nil
	}
	secret, err := g.secretFor(ctx, d)
	if err != nil {
		return false, nil
	}
	ok, counter := totp.Verify(secret, code, g.now(), g.window, d.LastCounter)
	if !ok {
		return false, nil
	}
	now := g.now().UTC()
	d.ConfirmedAt = &now
	d.LastCounter = counter
	if err := g.devices.UpsertDevice(ctx, d); err != nil {
		return false, fmt.Errorf("mfa: confirm device: %w", err)
	}
	return true, nil
}

func (g *Gate) secretFor(ctx context.Context, d *repository.MFADevice) ([]byte, error) {
	b32, err := g.box.Decrypt(d.SecretEncrypted)
	if err != nil {
		// Secreto irrecuperable ≠ MFA deshabilitado.
		logger.From(ctx).Error("mfa secret undecryptable",
			logger.Component("mfa.gate"),
			logger.UserID(d.UserID),
			logger.Err(err),
		)
		return nil, err
	}
	raw, err := totp.DecodeSecret(b32)
	if err != nil {
		logger.From(ctx).Error("mfa secret malformed",
			logger.Component("mfa.gate"),
			logger.UserID(d.UserID),
			logger.Err(err),
		)
		return nil, err
	}
	return raw, nil
}
