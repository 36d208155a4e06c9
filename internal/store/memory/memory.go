// Package memory implementa los repositorios en memoria, para dev y
// tests. Un único mutex por store: las operaciones de challenge quedan
// serializadas por construcción, que es exactamente la atomicidad que
// pide el contrato.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

type Store struct {
	mu sync.Mutex

	users      map[string]*repository.User // por id
	byEmail    map[string]string           // email → id
	passwords  map[string][]byte           // id → bcrypt hash
	tenants    map[string]*repository.ServiceProvider
	grants     map[string]*repository.TenantGrant // tenantID|userID
	challenges map[string]*repository.PasswordlessChallenge
	devices    map[string]*repository.MFADevice
}

func New() *Store {
	return &Store{
		users:      map[string]*repository.User{},
		byEmail:    map[string]string{},
		passwords:  map[string][]byte{},
		tenants:    map[string]*repository.ServiceProvider{},
		grants:     map[string]*repository.TenantGrant{},
		challenges: map[string]*repository.PasswordlessChallenge{},
		devices:    map[string]*repository.MFADevice{},
	}
}

func grantKey(tenantID, userID string) string { return tenantID + "|" + userID }

// ─── UserRepository ───

func (s *Store) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CheckPassword(_ context.Context, userID, password string) bool {
	s.mu.Lock()
	hash, ok := s.passwords[userID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// AddUser registra un usuario (seed/tests). password vacío = usuario
// sin credencial primaria (solo passwordless).
func (s *Store) AddUser(u *repository.User, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[cp.ID] = &cp
	s.byEmail[strings.ToLower(cp.Email)] = cp.ID
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		s.passwords[cp.ID] = hash
	}
	return nil
}

// ─── TenantRepository ───

func (s *Store) Get(_ context.Context, id string) (*repository.ServiceProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sp
	return &cp, nil
}

func (s *Store) Create(_ context.Context, sp *repository.ServiceProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[sp.ID]; ok {
		return repository.ErrConflict
	}
	cp := *sp
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.tenants[cp.ID] = &cp
	return nil
}

func (s *Store) SetSecretIfAbsent(_ context.Context, id, ciphertext string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.tenants[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if sp.SecretCiphertext != "" {
		return false, nil
	}
	sp.SecretCiphertext = ciphertext
	return true, nil
}

// ─── GrantRepository ───

func (s *Store) Active(_ context.Context, tenantID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantKey(tenantID, userID)]
	return ok && g.IsActive, nil
}

func (s *Store) Upsert(_ context.Context, g *repository.TenantGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	if cp.GrantedAt.IsZero() {
		cp.GrantedAt = time.Now().UTC()
	}
	s.grants[grantKey(cp.TenantID, cp.UserID)] = &cp
	return nil
}

// ─── ChallengeRepository ───

func (s *Store) Replace(_ context.Context, ch *repository.PasswordlessChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ch
	s.challenges[cp.UserID] = &cp
	return nil
}

// Redeem: chequeo y mutación bajo el mismo lock; el mismatch quema el
// intento en la misma operación que lo detecta.
func (s *Store) Redeem(_ context.Context, userID, hashedCode string, now time.Time, maxAttempts int) (repository.ChallengeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[userID]
	if !ok {
		return repository.ChallengeMissing, nil
	}
	switch {
	case ch.IsUsed:
		return repository.ChallengeAlreadyUsed, nil
	case !now.Before(ch.ExpiresAt):
		return repository.ChallengeExpired, nil
	case ch.Attempts >= maxAttempts:
		return repository.ChallengeExhausted, nil
	case ch.HashedCode == hashedCode:
		ch.IsUsed = true
		return repository.ChallengeConsumed, nil
	default:
		ch.Attempts++
		return repository.ChallengeCodeMismatch, nil
	}
}

// ─── MFADeviceRepository ───

func (s *Store) Enrolled(_ context.Context, userID string) (*repository.MFADevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[userID]
	if !ok || d.ConfirmedAt == nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *Store) Pending(_ context.Context, userID string) (*repository.MFADevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[userID]
	if !ok || d.ConfirmedAt != nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *Store) UpsertDevice(_ context.Context, d *repository.MFADevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.devices[cp.UserID] = &cp
	return nil
}

func (s *Store) MarkUsed(_ context.Context, userID string, counter int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[userID]; ok {
		d.LastCounter = counter
	}
	return nil
}
