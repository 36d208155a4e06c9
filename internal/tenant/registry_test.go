package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	"github.com/dropDatabas3/ssojohn/internal/store/memory"
)

const spID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

func newTestRegistry(t *testing.T) (*Registry, *memory.Store, *secretbox.Box) {
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
	return NewRegistry(st, st, box), st, box
}

func TestLookupValidatesFormatFirst(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if _, err := r.Lookup(context.Background(), "banana"); !errors.Is(err, ErrInvalidServiceID) {
		t.Fatalf("esperaba ErrInvalidServiceID, obtuvo %v", err)
	}
	if _, err := r.Lookup(context.Background(), spID); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("esperaba ErrTenantNotFound, obtuvo %v", err)
	}
}

func TestEnsureSecretIsIdempotent(t *testing.T) {
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := st.Create(ctx, &repository.ServiceProvider{ID: spID, Name: "app"}); err != nil {
		t.Fatal(err)
	}
	if err := r.EnsureSecret(ctx, spID); err != nil {
		t.Fatal(err)
	}
	sp, err := r.Lookup(ctx, spID)
	if err != nil {
		t.Fatal(err)
	}
	first, err := r.Secret(sp)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) < 90 {
		t.Fatalf("secreto de %d chars, esperaba >= 90", len(first))
	}

	// Segunda llamada: mismo secreto, nunca regenera.
	if err := r.EnsureSecret(ctx, spID); err != nil {
		t.Fatal(err)
	}
	sp, _ = r.Lookup(ctx, spID)
	second, err := r.Secret(sp)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("EnsureSecret regeneró un secreto existente")
	}
}

func TestEnsureSecretConcurrent(t *testing.T) {
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := st.Create(ctx, &repository.ServiceProvider{ID: spID, Name: "app"}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.EnsureSecret(ctx, spID); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	sp, err := r.Lookup(ctx, spID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Secret(sp); err != nil {
		t.Fatalf("tras la carrera debería quedar exactamente un secreto usable: %v", err)
	}
}

func TestSecretFailuresCollapse(t *testing.T) {
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	// Sin ciphertext.
	if err := st.Create(ctx, &repository.ServiceProvider{ID: spID, Name: "app"}); err != nil {
		t.Fatal(err)
	}
	sp, _ := r.Lookup(ctx, spID)
	if _, err := r.Secret(sp); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("sin secreto: esperaba ErrSecretMissing, obtuvo %v", err)
	}

	// Ciphertext corrupto: misma señal, sin detalle criptográfico.
	sp.SecretCiphertext = "no-es-un-ciphertext"
	if _, err := r.Secret(sp); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("corrupto: esperaba ErrSecretMissing, obtuvo %v", err)
	}
}

func TestAuthorized(t *testing.T) {
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()
	const user = "11111111-1111-4111-8111-111111111111"

	ok, err := r.Authorized(ctx, spID, user)
	if err != nil || ok {
		t.Fatalf("sin grant: ok=%v err=%v", ok, err)
	}

	if err := st.Upsert(ctx, &repository.TenantGrant{TenantID: spID, UserID: user, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	if ok, _ = r.Authorized(ctx, spID, user); !ok {
		t.Fatal("grant activo no autorizó")
	}

	if err := st.Upsert(ctx, &repository.TenantGrant{TenantID: spID, UserID: user, IsActive: false}); err != nil {
		t.Fatal(err)
	}
	if ok, _ = r.Authorized(ctx, spID, user); ok {
		t.Fatal("grant inactivo autorizó")
	}
}
