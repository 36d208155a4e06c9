package secretbox

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey(t *testing.T, fill byte) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill + byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := New(testKey(t, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg := "hola mundo ✓ — secreto"
	ct, err := box.Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := box.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	box, err := New(testKey(t, 7))
	if err != nil {
		t.Fatal(err)
	}
	ct, err := box.Encrypt("top secret")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(ct, "|")
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0x01 // flip
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	if _, err := box.Decrypt(corrupted); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestDecrypt_WrongKeyIsUniform(t *testing.T) {
	a, _ := New(testKey(t, 1))
	b, _ := New(testKey(t, 99))

	ct, err := a.Encrypt("per-tenant secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decrypt(ct); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("wrong key: expected ErrDecrypt, got %v", err)
	}
	// Basura estructural también colapsa en el mismo error.
	if _, err := b.Decrypt("not-a-ciphertext"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("malformed: expected ErrDecrypt, got %v", err)
	}
}

func TestNew_RejectsBadKeys(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("empty key accepted")
	}
	if _, err := New("dG9vLXNob3J0"); err == nil {
		t.Fatal("short key accepted")
	}
	if _, err := New("!!!not-base64!!!"); err == nil {
		t.Fatal("non-base64 key accepted")
	}
}

func TestGenerateMasterKey(t *testing.T) {
	k, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(k); err != nil {
		t.Fatalf("generated key unusable: %v", err)
	}
}
