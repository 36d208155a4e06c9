// Package totp implementa TOTP (RFC 6238) sobre HOTP (RFC 4226) con
// HMAC-SHA1, período de 30s y 6 dígitos.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	periodSeconds = 30
	digits        = 6
)

// GenerateSecret retorna 20 bytes crudos y su base32 sin padding.
func GenerateSecret() (raw []byte, b32 string, err error) {
	raw = make([]byte, 20)
	if _, err = rand.Read(raw); err != nil {
		return nil, "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return raw, enc, nil
}

// DecodeSecret decodifica un secreto base32 (con o sin padding).
func DecodeSecret(b32 string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(b32))
	if raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s); err == nil {
		return raw, nil
	}
	return base32.StdEncoding.DecodeString(s)
}

// OTPAuthURL construye la URL otpauth:// para el QR de enrolamiento.
func OTPAuthURL(issuer, accountName, secretB32 string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", digits))
	q.Set("period", fmt.Sprintf("%d", periodSeconds))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify valida el código en ventana ±windowSteps. Compara contra
// lastCounterUsed para rechazar replays del mismo step (pasar -1 si no
// hay counter previo). Devuelve el counter aceptado para persistirlo.
func Verify(secretRaw []byte, code string, t time.Time, windowSteps int, lastCounterUsed int64) (ok bool, counter int64) {
	code = strings.TrimSpace(code)
	if len(code) != digits {
		return false, 0
	}
	counter = t.Unix() / periodSeconds
	start := counter - int64(windowSteps)
	end := counter + int64(windowSteps)
	for c := start; c <= end; c++ {
		if c <= lastCounterUsed {
			continue // anti-replay
		}
		if gen(secretRaw, c) == code {
			return true, c
		}
	}
	return false, 0
}

// Code devuelve el código vigente en el step que contiene t. Para
// tooling de enrolamiento y tests; la validación va por Verify.
func Code(secretRaw []byte, t time.Time) string {
	return gen(secretRaw, t.Unix()/periodSeconds)
}

// gen: HOTP(K, C) con HMAC-SHA1 y truncamiento dinámico.
func gen(secretRaw []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secretRaw)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	otp := bin % int(math.Pow10(digits))
	return fmt.Sprintf("%06d", otp)
}
