package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/ssojohn/internal/auth"
	"github.com/dropDatabas3/ssojohn/internal/config"
	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/email"
	httpx "github.com/dropDatabas3/ssojohn/internal/http"
	"github.com/dropDatabas3/ssojohn/internal/mfa"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/passwordless"
	"github.com/dropDatabas3/ssojohn/internal/rate"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	"github.com/dropDatabas3/ssojohn/internal/store/memory"
	"github.com/dropDatabas3/ssojohn/internal/store/pg"
	"github.com/dropDatabas3/ssojohn/internal/tenant"
	"github.com/dropDatabas3/ssojohn/internal/token"
)

// fullStore agrupa todos los repositorios que el broker necesita; los
// implementan tanto memory.Store como pg.Store.
type fullStore interface {
	repository.UserRepository
	repository.TenantRepository
	repository.GrantRepository
	repository.ChallengeRepository
	repository.MFADeviceRepository
}

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("SSOJOHN_CONFIG"), "ruta al YAML de configuración (opcional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		// Logger todavía no inicializado.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: cfg.App.Name})
	defer func() { _ = logger.Sync() }()

	box, err := secretbox.New(cfg.Security.SecretboxMasterKey)
	if err != nil {
		logger.L().Fatal("invalid master key", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st    fullStore
		ready httpx.ReadyChecker
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			logger.L().Fatal("postgres connect failed", logger.Err(err))
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx); err != nil {
			logger.L().Fatal("migrations failed", logger.Err(err))
		}
		st = pgStore
		ready = func(ctx context.Context) error { return pgStore.Pool().Ping(ctx) }
	case "memory":
		logger.L().Warn("using in-memory storage, data does not survive restarts")
		st = memory.New()
	}

	registry := tenant.NewRegistry(st, st, box)
	sender := buildSender(cfg)
	mailer, err := email.NewCodeMailer(sender, cfg.App.Name)
	if err != nil {
		logger.L().Fatal("mailer init failed", logger.Err(err))
	}

	svc := auth.NewService(auth.Deps{
		Users:    st,
		Registry: registry,
		Engine:   token.NewEngine(cfg.AccessTTL(), cfg.RefreshTTL()),
		Codes:    passwordless.NewAuthenticator(st, cfg.CodeTTL(), cfg.Passwordless.MaxAttempts),
		Gate:     mfa.NewGate(st, box, cfg.MFA.Window),
		Mailer:   mailer,
		CodeTTL:  cfg.CodeTTL(),
	})

	loginLimiter, plaLimiter := buildLimiters(cfg)
	router := httpx.NewRouter(httpx.RouterConfig{
		Handlers:            httpx.NewHandlers(svc),
		Ready:               ready,
		LoginLimiter:        loginLimiter,
		PasswordlessLimiter: plaLimiter,
	})

	if err := httpx.Serve(ctx, cfg.Server.Addr, router); err != nil {
		logger.L().Fatal("server error", logger.Err(err))
	}
}

func buildSender(cfg *config.Config) email.Sender {
	if cfg.SMTP.Host == "" {
		return email.LogSender{}
	}
	s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	s.TLSMode = cfg.SMTP.TLS
	return s
}

func buildLimiters(cfg *config.Config) (login, pla rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	loginWindow := config.RateWindow(cfg.Rate.Login.Window, time.Minute)
	plaWindow := config.RateWindow(cfg.Rate.Passwordless.Window, 5*time.Minute)

	if cfg.Rate.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
		prefix := cfg.Rate.Redis.Prefix
		return rate.NewRedisLimiter(client, prefix, cfg.Rate.Login.Limit, loginWindow),
			rate.NewRedisLimiter(client, prefix, cfg.Rate.Passwordless.Limit, plaWindow)
	}
	logger.L().Warn("rate limiting enabled without redis, counters are per-replica")
	return rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWindow),
		rate.NewMemoryLimiter(cfg.Rate.Passwordless.Limit, plaWindow)
}
