package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// NOTA: los TTL de tokens se configuran en MINUTOS y los defaults
	// heredados (1440/2880) son escala-día. Se preservan tal cual hasta
	// confirmación de producto; no "corregir" silenciosamente.
	JWT struct {
		AccessTTLMinutes  int `yaml:"access_ttl_minutes"`  // default 1440
		RefreshTTLMinutes int `yaml:"refresh_ttl_minutes"` // default 2880
	} `yaml:"jwt"`

	Passwordless struct {
		CodeTTLMinutes int `yaml:"code_ttl_minutes"` // default 5
		MaxAttempts    int `yaml:"max_attempts"`     // default 5
	} `yaml:"passwordless"`

	MFA struct {
		// Ventana TOTP en steps de 30s hacia cada lado. Default 1.
		Window int `yaml:"window"`
	} `yaml:"mfa"`

	Security struct {
		// base64(32 bytes). Obligatoria: protege TODOS los secretos de
		// tenant (compromiso de esta clave = compromiso total, frontera
		// de confianza asumida y documentada).
		SecretboxMasterKey string `yaml:"secretbox_master_key"`
	} `yaml:"security"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		// auto | starttls | ssl | none
		TLS string `yaml:"tls"`
	} `yaml:"smtp"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Passwordless struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"passwordless"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (opcional), aplica overrides por ENV y defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv arma la config solo desde variables de entorno (sin YAML).
func FromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() {
	setStr(&c.App.Env, "SSOJOHN_ENV")
	setStr(&c.App.Name, "SSOJOHN_APP_NAME")
	setStr(&c.Server.Addr, "SSOJOHN_ADDR")
	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "STORAGE_DSN")
	setInt(&c.JWT.AccessTTLMinutes, "ACCESS_JWT_TIMEOUT")
	setInt(&c.JWT.RefreshTTLMinutes, "REFRESH_JWT_TIMEOUT")
	setInt(&c.Passwordless.CodeTTLMinutes, "PLA_CODE_EXP")
	setInt(&c.Passwordless.MaxAttempts, "PLA_MAX_ATTEMPTS")
	setInt(&c.MFA.Window, "MFA_TOTP_WINDOW")
	setStr(&c.Security.SecretboxMasterKey, "SECRETBOX_MASTER_KEY")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.From, "SMTP_FROM")
	setStr(&c.Rate.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "SSOJohn"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.JWT.AccessTTLMinutes <= 0 {
		c.JWT.AccessTTLMinutes = 1440
	}
	if c.JWT.RefreshTTLMinutes <= 0 {
		c.JWT.RefreshTTLMinutes = 2880
	}
	if c.Passwordless.CodeTTLMinutes <= 0 {
		c.Passwordless.CodeTTLMinutes = 5
	}
	if c.Passwordless.MaxAttempts <= 0 {
		c.Passwordless.MaxAttempts = 5
	}
	if c.MFA.Window <= 0 {
		c.MFA.Window = 1
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Rate.Login.Limit <= 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Passwordless.Limit <= 0 {
		c.Rate.Passwordless.Limit = 3
	}
	if c.Rate.Passwordless.Window == "" {
		c.Rate.Passwordless.Window = "5m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: storage.driver inválido: %q", c.Storage.Driver)
	}
	if c.Security.SecretboxMasterKey == "" {
		return fmt.Errorf("config: security.secretbox_master_key es obligatoria (openssl rand -base64 32)")
	}
	return nil
}

// AccessTTL / RefreshTTL / CodeTTL: conversiones a time.Duration.

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLMinutes) * time.Minute
}

func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.Passwordless.CodeTTLMinutes) * time.Minute
}

// RateWindow parsea una ventana ("1m", "5m") con fallback.
func RateWindow(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
