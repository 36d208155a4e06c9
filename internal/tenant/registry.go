// Package tenant resuelve service providers, sus grants y su secreto de
// firma. El secreto se descifra fresco en cada llamada: nunca se cachea
// entre requests, porque es el único discriminador entre tenants.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	tokens "github.com/dropDatabas3/ssojohn/internal/security/token"
)

// Bytes de entropía del secreto de firma (>=90, URL-safe), igual que el
// token_urlsafe(90) histórico.
const secretEntropyBytes = 90

var (
	// ErrInvalidServiceID: el id vino malformado. Distinto de NotFound:
	// se rechaza ANTES de tocar el store (el id es input del atacante).
	ErrInvalidServiceID = errors.New("tenant: invalid service id format")

	ErrTenantNotFound = errors.New("tenant: not found")

	// ErrSecretMissing: el tenant no tiene secreto usable. Cubre tanto
	// ciphertext ausente como fallas de descifrado — el detalle
	// criptográfico se traga a propósito, nunca se re-lanza.
	ErrSecretMissing = errors.New("tenant: no usable signing secret")
)

type Registry struct {
	tenants repository.TenantRepository
	grants  repository.GrantRepository
	box     *secretbox.Box

	sf singleflight.Group
}

func NewRegistry(tenants repository.TenantRepository, grants repository.GrantRepository, box *secretbox.Box) *Registry {
	return &Registry{tenants: tenants, grants: grants, box: box}
}

// Lookup valida el formato del id y resuelve el service provider.
// Malformado → ErrInvalidServiceID; inexistente → ErrTenantNotFound.
func (r *Registry) Lookup(ctx context.Context, rawID string) (*repository.ServiceProvider, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidServiceID
	}
	sp, err := r.tenants.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenant: lookup: %w", err)
	}
	return sp, nil
}

// Secret descifra el secreto de firma del tenant. Cualquier falla de
// descifrado colapsa en ErrSecretMissing ("no hay secreto usable").
func (r *Registry) Secret(sp *repository.ServiceProvider) (string, error) {
	if !sp.HasSecret() {
		return "", ErrSecretMissing
	}
	secret, err := r.box.Decrypt(sp.SecretCiphertext)
	if err != nil {
		// No propagar el detalle: oculta internals del vault.
		return "", ErrSecretMissing
	}
	return secret, nil
}

// Authorized: true solo si existe un grant activo (tenant, user).
// Ausencia de grant no es un error del store.
func (r *Registry) Authorized(ctx context.Context, tenantID, userID string) (bool, error) {
	ok, err := r.grants.Active(ctx, tenantID, userID)
	if err != nil {
		return false, fmt.Errorf("tenant: grant check: %w", err)
	}
	return ok, nil
}

// EnsureSecret genera y persiste el secreto de firma si el tenant aún
// no tiene. Idempotente bajo concurrencia: singleflight colapsa las
// llamadas del proceso y SetSecretIfAbsent decide entre procesos (solo
// un secreto generado gana y queda persistido). Nunca regenera.
func (r *Registry) EnsureSecret(ctx context.Context, tenantID string) error {
	_, err, _ := r.sf.Do(tenantID, func() (any, error) {
		sp, err := r.tenants.Get(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if sp.HasSecret() {
			return nil, nil
		}
		plain, err := tokens.GenerateOpaqueToken(secretEntropyBytes)
		if err != nil {
			return nil, fmt.Errorf("tenant: generate secret: %w", err)
		}
		ct, err := r.box.Encrypt(plain)
		if err != nil {
			return nil, fmt.Errorf("tenant: encrypt secret: %w", err)
		}
		wrote, err := r.tenants.SetSecretIfAbsent(ctx, tenantID, ct)
		if err != nil {
			return nil, err
		}
		if !wrote {
			// Otro proceso ganó la carrera; su secreto queda.
			logger.From(ctx).Debug("tenant secret already present",
				logger.Component("tenant.registry"),
				logger.TenantID(tenantID),
			)
		}
		return nil, nil
	})
	return err
}
