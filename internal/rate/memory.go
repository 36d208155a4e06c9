package rate

import (
	"context"
	"math"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: mismo algoritmo fixed-window pero con contadores en
// proceso. Para dev/single-replica sin redis; con varias réplicas el
// límite efectivo se multiplica.
type MemoryLimiter struct {
	c      *gocache.Cache
	max    int64
	window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.window)
	k := key + ":" + strconv.FormatInt(winStart.Unix(), 10)

	// Add falla si la clave ya existe; en ambos casos el Increment
	// posterior opera sobre el contador de ESTA ventana.
	_ = l.c.Add(k, int64(0), l.window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// El contador expiró entre Add e Increment: ventana nueva.
		_ = l.c.Add(k, int64(1), l.window)
		hits = 1
	}

	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.max,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !res.Allowed {
		res.RetryAfter = time.Duration(math.Ceil(time.Until(winStart.Add(l.window)).Seconds())) * time.Second
		if res.RetryAfter < 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}

// NoopLimiter deja pasar todo. Para cuando rate.enabled=false.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true, Remaining: math.MaxInt64}, nil
}
