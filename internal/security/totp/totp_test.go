package totp

import (
	"encoding/base32"
	"testing"
	"time"
)

// Secreto de los vectores RFC 4226/6238 ("12345678901234567890").
var rfcSecret = []byte("12345678901234567890")

func TestVerify_RFCVectors(t *testing.T) {
	// RFC 6238, apéndice B (truncados a 6 dígitos).
	cases := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, c := range cases {
		ok, _ := Verify(rfcSecret, c.code, time.Unix(c.unix, 0), 0, -1)
		if !ok {
			t.Fatalf("vector t=%d code=%s should verify", c.unix, c.code)
		}
	}
}

func TestVerify_Window(t *testing.T) {
	at := time.Unix(59, 0) // counter 1 → 287082
	// Un step más tarde, con ventana 1, el código anterior sigue válido.
	ok, counter := Verify(rfcSecret, "287082", at.Add(30*time.Second), 1, -1)
	if !ok {
		t.Fatal("code within ±1 window should verify")
	}
	if counter != 1 {
		t.Fatalf("counter: got %d want 1", counter)
	}
	// Con ventana 0 ya no.
	if ok, _ := Verify(rfcSecret, "287082", at.Add(30*time.Second), 0, -1); ok {
		t.Fatal("code outside window verified")
	}
}

func TestVerify_AntiReplay(t *testing.T) {
	at := time.Unix(59, 0)
	ok, counter := Verify(rfcSecret, "287082", at, 1, -1)
	if !ok {
		t.Fatal("first use should verify")
	}
	// Mismo código, mismo step: rechazado.
	if ok, _ := Verify(rfcSecret, "287082", at, 1, counter); ok {
		t.Fatal("replay accepted")
	}
}

func TestVerify_RejectsBadInput(t *testing.T) {
	at := time.Unix(59, 0)
	for _, code := range []string{"", "12345", "1234567", "28708a"} {
		if ok, _ := Verify(rfcSecret, code, at, 1, -1); ok {
			t.Fatalf("code %q accepted", code)
		}
	}
}

func TestGenerateAndDecodeSecret(t *testing.T) {
	raw, b32, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 20 {
		t.Fatalf("raw length: %d", len(raw))
	}
	dec, err := DecodeSecret(b32)
	if err != nil {
		t.Fatal(err)
	}
	if string(dec) != string(raw) {
		t.Fatal("decode mismatch")
	}
	// También acepta la forma con padding.
	padded := base32.StdEncoding.EncodeToString(raw)
	if dec, err := DecodeSecret(padded); err != nil || string(dec) != string(raw) {
		t.Fatalf("padded decode: %v", err)
	}
}

func TestVerify_RejectsNonDigitSameLength(t *testing.T) {
	if ok, _ := Verify(rfcSecret, "backup", time.Unix(59, 0), 1, -1); ok {
		t.Fatal("non-numeric code accepted")
	}
}
