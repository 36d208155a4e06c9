// Package tokens: helpers de material aleatorio y hashing para el broker.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin
// padding). Con nBytes=90 se usa como secreto de firma de tenant.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNumericCode genera un código de n dígitos decimales, cada
// dígito extraído de forma independiente de crypto/rand. Nunca usar un
// PRNG de propósito general acá.
func GenerateNumericCode(n int) (string, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// SHA256Hex devuelve sha256(input) en hexadecimal (forma persistida de
// los códigos passwordless).
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}
