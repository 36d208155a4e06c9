package mfa

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	"github.com/dropDatabas3/ssojohn/internal/store/memory"
)

// Secreto del RFC 6238 ("12345678901234567890" en base32). A t=59s el
// código esperado es 287082.
const rfcSecretB32 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func newTestGate(t *testing.T) (*Gate, *memory.Store, *secretbox.Box) {
	t.Helper()
	key, err := secretbox.GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	box, err := secretbox.New(key)
	if err != nil {
		t.Fatal(err)
	}
	st := memory.New()
	return NewGate(st, box, 1), st, box
}

func enrollRFCDevice(t *testing.T, st *memory.Store, box *secretbox.Box, userID string, confirmed bool) {
	t.Helper()
	ct, err := box.Encrypt(rfcSecretB32)
	if err != nil {
		t.Fatal(err)
	}
	d := &repository.MFADevice{UserID: userID, SecretEncrypted: ct, LastCounter: -1}
	if confirmed {
		at := time.Unix(0, 0)
		d.ConfirmedAt = &at
	}
	if err := st.UpsertDevice(context.Background(), d); err != nil {
		t.Fatal(err)
	}
}

func TestNotRequiredPassesWithoutCode(t *testing.T) {
	g, _, _ := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: false}

	ok, err := g.Verify(context.Background(), u, "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("usuario sin MFA debería pasar trivialmente")
	}
}

func TestRequiredWithoutDeviceFailsClosed(t *testing.T) {
	g, _, _ := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: true}

	ok, err := g.Verify(context.Background(), u, "287082")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("MFA requerido sin dispositivo enrolado no puede validar")
	}
}

func TestVerifyAcceptsValidCodeOnce(t *testing.T) {
	g, st, box := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: true}
	enrollRFCDevice(t, st, box, u.ID, true)
	g.now = func() time.Time { return time.Unix(59, 0) }

	ok, err := g.Verify(context.Background(), u, "287082")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("código TOTP válido rechazado")
	}

	// Replay del mismo código en el mismo step: rechazado.
	ok, err = g.Verify(context.Background(), u, "287082")
	if err != nil {
		t.Fatalf("Verify replay: %v", err)
	}
	if ok {
		t.Fatal("replay del mismo código aceptado")
	}
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	g, st, box := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: true}
	enrollRFCDevice(t, st, box, u.ID, true)
	g.now = func() time.Time { return time.Unix(59, 0) }

	ok, _ := g.Verify(context.Background(), u, "000000")
	if ok {
		t.Fatal("código incorrecto aceptado")
	}
}

func TestVerifyEmptyCodeWhenRequired(t *testing.T) {
	g, st, box := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: true}
	enrollRFCDevice(t, st, box, u.ID, true)

	ok, _ := g.Verify(context.Background(), u, "")
	if ok {
		t.Fatal("código vacío no puede validar cuando MFA es requerido")
	}
}

func TestUndecryptableSecretFailsClosed(t *testing.T) {
	g, st, _ := newTestGate(t)
	u := &repository.User{ID: "u1", MFAEnabled: true}

	at := time.Unix(0, 0)
	d := &repository.MFADevice{UserID: u.ID, SecretEncrypted: "basura", ConfirmedAt: &at, LastCounter: -1}
	if err := st.UpsertDevice(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	g.now = func() time.Time { return time.Unix(59, 0) }

	ok, err := g.Verify(context.Background(), u, "287082")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("secreto indescifrable debe fallar cerrado, no validar")
	}
}

func TestConfirmFlow(t *testing.T) {
	g, st, box := newTestGate(t)
	enrollRFCDevice(t, st, box, "u1", false)
	g.now = func() time.Time { return time.Unix(59, 0) }

	ok, err := g.Confirm(context.Background(), "u1", "287082")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !ok {
		t.Fatal("confirmación con código válido rechazada")
	}

	d, err := st.Enrolled(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if d == nil || d.ConfirmedAt == nil {
		t.Fatal("el dispositivo debería quedar confirmado")
	}
}

func TestEnrollProducesPendingDevice(t *testing.T) {
	g, st, _ := newTestGate(t)

	b32, otpauth, err := g.Enroll(context.Background(), "u1", "SSOJohn", "user@example.com")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if b32 == "" || otpauth == "" {
		t.Fatal("Enroll debe devolver secreto y URL otpauth")
	}

	if d, _ := st.Enrolled(context.Background(), "u1"); d != nil {
		t.Fatal("dispositivo sin confirmar no puede contar como enrolado")
	}
	if d, _ := st.Pending(context.Background(), "u1"); d == nil {
		t.Fatal("debería existir un dispositivo pendiente")
	}
}
