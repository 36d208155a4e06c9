// Package auth orquesta los flujos de login contra el resto de los
// componentes: registry de tenants, credenciales, gate MFA, códigos
// passwordless y motor de tokens.
//
// El orden de chequeos es fijo y se respeta en todos los flujos:
// formato del service_id → identidad → MFA → grant → mint. El grant se
// verifica DESPUÉS de autenticar para no regalar un oráculo de
// membresía a quien no probó identidad.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/audit"
	"github.com/dropDatabas3/ssojohn/internal/claims"
	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/mfa"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/passwordless"
	"github.com/dropDatabas3/ssojohn/internal/tenant"
	"github.com/dropDatabas3/ssojohn/internal/token"
	"github.com/dropDatabas3/ssojohn/internal/util"
)

// CodeSender abstrae el envío del código passwordless (SMTP en prod,
// log en dev, fake en tests).
type CodeSender interface {
	SendCode(to, code string, ttl time.Duration) error
}

type Deps struct {
	Users    repository.UserRepository
	Registry *tenant.Registry
	Engine   *token.Engine
	Codes    *passwordless.Authenticator
	Gate     *mfa.Gate
	Mailer   CodeSender
	CodeTTL  time.Duration
}

type Service struct {
	users    repository.UserRepository
	registry *tenant.Registry
	engine   *token.Engine
	codes    *passwordless.Authenticator
	gate     *mfa.Gate
	mailer   CodeSender
	codeTTL  time.Duration
}

func NewService(d Deps) *Service {
	return &Service{
		users:    d.Users,
		registry: d.Registry,
		engine:   d.Engine,
		codes:    d.Codes,
		gate:     d.Gate,
		mailer:   d.Mailer,
		codeTTL:  d.CodeTTL,
	}
}

type LoginInput struct {
	ServiceID string
	Email     string
	Password  string
	MFACode   string
}

type PasswordlessInput struct {
	ServiceID string
	Email     string
	Code      string
}

// LoginResult es el payload de un login exitoso: el par de tokens más
// la redirect_url del tenant para el post-back del front.
type LoginResult struct {
	Pair        token.Pair
	RedirectURL string
}

// MFAStatus indica si el usuario va a necesitar un código TOTP para
// loguearse. Exige credenciales válidas: el flag MFA de un usuario no
// se revela a quien no probó la password.
func (s *Service) MFAStatus(ctx context.Context, serviceID, email, password string) (bool, error) {
	if _, err := s.lookupTenant(ctx, serviceID); err != nil {
		return false, err
	}
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return false, err
	}
	return s.gate.Required(u), nil
}

// LoginPassword es el flujo principal: password + (según el usuario)
// TOTP, gate de grant y emisión del par.
func (s *Service) LoginPassword(ctx context.Context, in LoginInput) (*LoginResult, error) {
	sp, err := s.lookupTenant(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	u, err := s.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.passMFA(ctx, u, in.MFACode); err != nil {
		return nil, err
	}
	return s.finishLogin(ctx, sp, u)
}

// PasswordlessStart emite un código fresco y lo envía por email. El
// código anterior del usuario (si había) queda invalidado.
func (s *Service) PasswordlessStart(ctx context.Context, serviceID, email string) error {
	if _, err := s.lookupTenant(ctx, serviceID); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: lookup user: %w", err)
	}
	code, err := s.codes.Issue(ctx, u.ID)
	if err != nil {
		return err
	}
	if err := s.mailer.SendCode(u.Email, code, s.codeTTL); err != nil {
		return fmt.Errorf("auth: send code: %w", err)
	}
	audit.Log(ctx, "auth.code_sent",
		logger.UserID(u.ID),
		logger.String("email", util.MaskEmail(u.Email)),
	)
	return nil
}

// PasswordlessComplete canjea el código por el par de tokens. El código
// ya es un factor de posesión de un solo uso: sustituye a password+MFA,
// no se apila con el gate TOTP. Del consumo exitoso se pasa directo a
// grant y mint.
func (s *Service) PasswordlessComplete(ctx context.Context, in PasswordlessInput) (*LoginResult, error) {
	sp, err := s.lookupTenant(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	ok, _, err := s.codes.Verify(ctx, u.ID, in.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}
	return s.finishLogin(ctx, sp, u)
}

// Refresh verifica el refresh contra el secreto del tenant, re-resuelve
// al usuario y re-proyecta los claims antes de emitir el par nuevo:
// atributos cambiados o revocados desde el login se propagan acá.
func (s *Service) Refresh(ctx context.Context, serviceID, refreshToken string) (*LoginResult, error) {
	sp, err := s.lookupTenant(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	secret, err := s.registry.Secret(sp)
	if err != nil {
		return nil, ErrSecretUnavailable
	}
	payload, err := s.engine.Verify(secret, refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sub, ok := token.Subject(payload)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// El usuario del token ya no existe: para afuera es lo
			// mismo que un token inválido.
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("auth: resolve subject: %w", err)
	}
	return s.finishLogin(ctx, sp, u)
}

// ─── pasos compartidos ───

func (s *Service) lookupTenant(ctx context.Context, serviceID string) (*repository.ServiceProvider, error) {
	sp, err := s.registry.Lookup(ctx, serviceID)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrInvalidServiceID):
			return nil, ErrInvalidServiceID
		case errors.Is(err, tenant.ErrTenantNotFound):
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return sp, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*repository.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			audit.Log(ctx, "auth.credentials_rejected",
				logger.String("email", util.MaskEmail(email)),
			)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !s.users.CheckPassword(ctx, u.ID, password) {
		audit.Log(ctx, "auth.credentials_rejected",
			logger.UserID(u.ID),
			logger.String("email", util.MaskEmail(email)),
		)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) passMFA(ctx context.Context, u *repository.User, code string) error {
	if !s.gate.Required(u) {
		return nil
	}
	if code == "" {
		return ErrMFARequired
	}
	ok, err := s.gate.Verify(ctx, u, code)
	if err != nil {
		return err
	}
	if !ok {
		audit.Log(ctx, "auth.mfa_rejected", logger.UserID(u.ID))
		return ErrMFAInvalid
	}
	return nil
}

// finishLogin: grant → secreto → proyección → mint. Común a password,
// passwordless y refresh.
func (s *Service) finishLogin(ctx context.Context, sp *repository.ServiceProvider, u *repository.User) (*LoginResult, error) {
	allowed, err := s.registry.Authorized(ctx, sp.ID, u.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		audit.Log(ctx, "auth.grant_denied",
			logger.TenantID(sp.ID),
			logger.UserID(u.ID),
		)
		return nil, ErrNotAllowed
	}
	secret, err := s.registry.Secret(sp)
	if err != nil {
		logger.From(ctx).Error("tenant without usable signing secret",
			logger.Component("auth.service"),
			logger.TenantID(sp.ID),
		)
		return nil, ErrSecretUnavailable
	}

	// La proyección se rehace en cada mint; "sub" y "service_id" van
	// siempre, pida lo que pida el tenant.
	payload := claims.Project(u, sp)
	payload["sub"] = u.ID
	payload["service_id"] = sp.ID

	pair, err := s.engine.MintPair(secret, payload)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, "auth.pair_issued",
		logger.TenantID(sp.ID),
		logger.UserID(u.ID),
	)
	return &LoginResult{Pair: pair, RedirectURL: sp.RedirectURL}, nil
}
