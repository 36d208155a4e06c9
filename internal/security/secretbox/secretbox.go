// Package secretbox cifra secretos en reposo con AES-256-GCM.
//
// Una única clave maestra de proceso protege TODOS los secretos de
// tenant: no hay clave por tenant. Compromiso de la clave maestra =
// compromiso total. Esa frontera de confianza es asumida y está
// documentada; no es un bug a "arreglar" en silencio.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12  // nonce AES-GCM recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // formato: base64(nonce)|base64(ciphertext)
)

// ErrDecrypt: cualquier falla de descifrado (formato, clave equivocada,
// tag inválido). Uniforme a propósito: los callers lo tratan como
// "no hay secreto usable", nunca lo re-lanzan con detalle.
var ErrDecrypt = errors.New("secretbox: decrypt failed")

// Box cifra/descifra con una clave explícita. Sin estado global: la
// clave viaja por config y se inyecta al construir.
type Box struct {
	key []byte
}

// New crea un Box desde la clave maestra en base64 (std o raw).
// La clave debe decodificar a exactamente 32 bytes.
func New(masterKeyB64 string) (*Box, error) {
	kb64 := strings.TrimSpace(masterKeyB64)
	if kb64 == "" {
		return nil, fmt.Errorf("secretbox: clave maestra vacía; generar con: openssl rand -base64 32")
	}
	k, err := base64.StdEncoding.DecodeString(kb64)
	if err != nil {
		if k, err = base64.RawStdEncoding.DecodeString(kb64); err != nil {
			return nil, fmt.Errorf("secretbox: decode clave maestra: %w", err)
		}
	}
	if len(k) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: la clave debe decodificar a %d bytes, obtuvo %d", requiredKeyLength, len(k))
	}
	key := make([]byte, len(k))
	copy(key, k)
	return &Box{key: key}, nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Encrypt(plainText string) (string, error) {
	aesgcm, err := b.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce random: %w", err)
	}
	ct := aesgcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt recibe base64(nonce)|base64(ciphertext) y devuelve el texto
// plano. Toda falla colapsa en ErrDecrypt, sin distinguir causa.
func (b *Box) Decrypt(cipherText string) (string, error) {
	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return "", ErrDecrypt
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return "", ErrDecrypt
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrDecrypt
	}
	aesgcm, err := b.gcm()
	if err != nil {
		return "", ErrDecrypt
	}
	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(pt), nil
}

func (b *Box) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: cipher.NewGCM: %w", err)
	}
	return aesgcm, nil
}

// GenerateMasterKey genera una clave maestra nueva en base64 (32 bytes).
func GenerateMasterKey() (string, error) {
	k := make([]byte, requiredKeyLength)
	if _, err := rand.Read(k); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(k), nil
}
