// Package token emite y verifica los pares access/refresh de cada
// tenant. HS256 con el secreto del tenant como clave: un token firmado
// para un tenant jamás verifica contra otro.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Discriminadores de tipo embebidos en el payload. Un refresh jamás
// pasa por access ni al revés, aunque la firma sea válida.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const claimTokenType = "token_type"

// ErrTokenInvalid: cualquier token que no verifica — firma ajena,
// expirado, malformado, tipo equivocado, alg inesperado. Uniforme a
// propósito: el caller no puede distinguir la causa y un atacante
// tampoco.
var ErrTokenInvalid = errors.New("token: invalid token")

// Pair es el resultado de un login exitoso.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Engine struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewEngine(accessTTL, refreshTTL time.Duration) *Engine {
	return &Engine{accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// MintPair firma un par access+refresh con el secreto del tenant. Ambos
// tokens llevan el mismo payload proyectado; solo difieren token_type y
// exp. claims no se muta.
func (e *Engine) MintPair(secret string, claims map[string]any) (Pair, error) {
	access, err := e.mint(secret, TypeAccess, e.accessTTL, claims)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := e.mint(secret, TypeRefresh, e.refreshTTL, claims)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (e *Engine) mint(secret, typ string, ttl time.Duration, claims map[string]any) (string, error) {
	now := e.now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc[claimTokenType] = typ
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("token: sign %s: %w", typ, err)
	}
	return signed, nil
}

// Verify valida firma, expiración y tipo contra el secreto del tenant
// y devuelve el payload. Cualquier falla colapsa en ErrTokenInvalid.
func (e *Engine) Verify(secret, tokenString, wantType string) (map[string]any, error) {
	parsed, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(e.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	if typ, _ := mc[claimTokenType].(string); typ != wantType {
		return nil, ErrTokenInvalid
	}
	return map[string]any(mc), nil
}

// Subject extrae el user id ("sub") de un payload verificado.
func Subject(claims map[string]any) (string, bool) {
	sub, ok := claims["sub"].(string)
	return sub, ok && sub != ""
}
