package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
)

const userColumns = `id, email, username, phone_number, role, is_verified, is_mfa_enabled, metadata, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var phone, role *string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &phone, &role,
		&u.IsVerified, &u.MFAEnabled, &u.Metadata, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if phone != nil {
		u.PhoneNumber = *phone
	}
	if role != nil {
		u.Role = *role
	}
	return &u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
	return scanUser(row)
}

// CheckPassword valida la credencial primaria contra el hash bcrypt.
// false ante cualquier falla, sin distinguir causa.
func (s *Store) CheckPassword(ctx context.Context, userID, password string) bool {
	var hash []byte
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM app_user WHERE id = $1 AND password_hash IS NOT NULL`,
		userID).Scan(&hash)
	if err != nil || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// CreateUser: alta mínima para seed/CLI. El CRUD real de perfiles vive
// fuera de este servicio.
func (s *Store) CreateUser(ctx context.Context, u *repository.User, password string) error {
	var hash []byte // nil → NULL
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = h
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_user (id, email, username, phone_number, role, is_verified, is_mfa_enabled, metadata, password_hash)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9)
	`, u.ID, strings.ToLower(strings.TrimSpace(u.Email)), u.Username, u.PhoneNumber, u.Role,
		u.IsVerified, u.MFAEnabled, u.Metadata, hash)
	return err
}
