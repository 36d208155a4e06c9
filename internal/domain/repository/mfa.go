package repository

import (
	"context"
	"time"
)

// MFADevice: dispositivo TOTP enrolado. El secreto se guarda cifrado con
// secretbox, igual que el secreto del tenant.
type MFADevice struct {
	UserID          string
	SecretEncrypted string // secretbox(base32(secret))
	ConfirmedAt     *time.Time
	LastCounter     int64 // último counter TOTP aceptado (anti-replay)
	CreatedAt       time.Time
}

type MFADeviceRepository interface {
	// Enrolled devuelve el dispositivo confirmado del usuario, o
	// (nil, nil) si no hay ninguno.
	Enrolled(ctx context.Context, userID string) (*MFADevice, error)

	// Pending devuelve el dispositivo aún sin confirmar, o (nil, nil).
	Pending(ctx context.Context, userID string) (*MFADevice, error)

	UpsertDevice(ctx context.Context, d *MFADevice) error

	// MarkUsed persiste el counter aceptado para rechazar replays del
	// mismo código.
	MarkUsed(ctx context.Context, userID string, counter int64, at time.Time) error
}
