package passwordless

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/store/memory"
)

const testUser = "11111111-1111-1111-1111-111111111111"

func newTestAuth(t *testing.T) (*Authenticator, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewAuthenticator(st, 5*time.Minute, 5), st
}

func TestIssueAndVerify(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	code, err := a.Issue(ctx, testUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("código de %d dígitos, esperaba 6", len(code))
	}

	ok, reason, err := a.Verify(ctx, testUser, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok || reason != ReasonOK {
		t.Fatalf("ok=%v reason=%s, esperaba consumo exitoso", ok, reason)
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	code, _ := a.Issue(ctx, testUser)
	if ok, _, _ := a.Verify(ctx, testUser, code); !ok {
		t.Fatal("primer uso debería pasar")
	}
	ok, reason, _ := a.Verify(ctx, testUser, code)
	if ok {
		t.Fatal("el mismo código no puede validar dos veces")
	}
	if reason != ReasonUsed {
		t.Fatalf("reason=%s, esperaba %s", reason, ReasonUsed)
	}
}

func TestWrongCodeBurnsAttempts(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	code, _ := a.Issue(ctx, testUser)
	for i := 0; i < 5; i++ {
		if ok, _, _ := a.Verify(ctx, testUser, "000000"); ok {
			t.Fatal("código equivocado no puede validar")
		}
	}
	// Agotados los intentos, ni el código correcto revive el challenge.
	ok, reason, _ := a.Verify(ctx, testUser, code)
	if ok {
		t.Fatal("challenge agotado aceptó el código correcto")
	}
	if reason != ReasonExhausted {
		t.Fatalf("reason=%s, esperaba %s", reason, ReasonExhausted)
	}
}

func TestExpiredCode(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	code, _ := a.Issue(ctx, testUser)
	a.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	ok, reason, _ := a.Verify(ctx, testUser, code)
	if ok {
		t.Fatal("código expirado validó")
	}
	if reason != ReasonExpired {
		t.Fatalf("reason=%s, esperaba %s", reason, ReasonExpired)
	}
}

func TestReissueInvalidatesPrevious(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	first, _ := a.Issue(ctx, testUser)
	second, _ := a.Issue(ctx, testUser)

	if first != second {
		if ok, _, _ := a.Verify(ctx, testUser, first); ok {
			t.Fatal("el código viejo debería quedar invalidado al reemitir")
		}
	}
	if ok, _, _ := a.Verify(ctx, testUser, second); !ok {
		t.Fatal("el código vigente debería validar")
	}
}

func TestReissueResetsAttemptAccounting(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	// Fallos contra el challenge viejo no pueden cargarse al nuevo: el
	// nuevo arranca con los 5 intentos completos.
	_, _ = a.Issue(ctx, testUser)
	for i := 0; i < 4; i++ {
		if ok, _, _ := a.Verify(ctx, testUser, "000000"); ok {
			t.Fatal("código equivocado no puede validar")
		}
	}

	code, _ := a.Issue(ctx, testUser)
	for i := 0; i < 4; i++ {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		if ok, _, _ := a.Verify(ctx, testUser, wrong); ok {
			t.Fatal("código equivocado no puede validar")
		}
	}
	ok, reason, err := a.Verify(ctx, testUser, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("quinto intento con el código correcto rechazado (reason=%s): el accounting viejo se filtró al challenge nuevo", reason)
	}
}

func TestVerifyWithoutChallenge(t *testing.T) {
	a, _ := newTestAuth(t)

	ok, reason, err := a.Verify(context.Background(), testUser, "123456")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok || reason != ReasonNoChallenge {
		t.Fatalf("ok=%v reason=%s, esperaba rechazo sin challenge", ok, reason)
	}
}
