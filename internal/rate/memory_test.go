package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesMax(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d dentro del límite fue rechazado", i)
		}
		if res.Remaining != int64(3-i) {
			t.Fatalf("remaining=%d tras %d hits", res.Remaining, i)
		}
	}

	res, err := l.Allow(ctx, "ip:1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("cuarto hit debería ser rechazado")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter=%v, esperaba resto de ventana", res.RetryAfter)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("primer hit de 'a' rechazado")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("segundo hit de 'a' aceptado")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("'b' no comparte contador con 'a'")
	}
}

func TestNoopLimiter(t *testing.T) {
	res, err := NoopLimiter{}.Allow(context.Background(), "x")
	if err != nil || !res.Allowed {
		t.Fatalf("noop debe dejar pasar siempre (allowed=%v err=%v)", res.Allowed, err)
	}
}
