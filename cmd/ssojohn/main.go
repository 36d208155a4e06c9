// ssojohn: CLI administrativa del broker. Opera directo contra el
// storage (no vía API): alta de tenants, grants y usuarios de prueba.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/ssojohn/internal/config"
	"github.com/dropDatabas3/ssojohn/internal/domain/repository"
	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/security/secretbox"
	"github.com/dropDatabas3/ssojohn/internal/store/pg"
	"github.com/dropDatabas3/ssojohn/internal/tenant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "ssojohn",
		Short:         "Administración del SSO broker (tenants, grants, usuarios)",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("SSOJOHN_CONFIG"), "ruta al YAML de configuración")

	root.AddCommand(genKeyCmd())
	root.AddCommand(tenantCmd(&cfgPath))
	root.AddCommand(userCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore arma config + store pg + registry para los subcomandos.
func openStore(cfgPath string) (*pg.Store, *tenant.Registry, context.Context, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if cfg.Storage.Driver != "postgres" {
		return nil, nil, nil, nil, fmt.Errorf("la CLI requiere storage.driver=postgres (actual: %s)", cfg.Storage.Driver)
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{})
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		cancel()
		return nil, nil, nil, nil, err
	}
	box, err := secretbox.New(cfg.Security.SecretboxMasterKey)
	if err != nil {
		st.Close()
		cancel()
		return nil, nil, nil, nil, err
	}
	cleanup := func() { st.Close(); cancel() }
	return st, tenant.NewRegistry(st, st, box), ctx, cleanup, nil
}

func genKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Genera una clave maestra nueva para SECRETBOX_MASTER_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secretbox.GenerateMasterKey()
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}
}

func tenantCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Alta y grants de service providers",
	}

	var (
		name        string
		redirectURL string
		claimsCSV   string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea un service provider y genera su secreto de firma",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, registry, ctx, cleanup, err := openStore(*cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			claims := map[string]any{}
			for _, c := range strings.Split(claimsCSV, ",") {
				if c = strings.TrimSpace(c); c != "" {
					claims[c] = true
				}
			}
			sp := &repository.ServiceProvider{
				ID:             uuid.NewString(),
				Name:           name,
				ClaimsRequired: claims,
				RedirectURL:    redirectURL,
			}
			if err := st.Create(ctx, sp); err != nil {
				return err
			}
			if err := registry.EnsureSecret(ctx, sp.ID); err != nil {
				return err
			}
			fmt.Printf("service_id: %s\n", sp.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "nombre del service provider")
	create.Flags().StringVar(&redirectURL, "redirect-url", "", "URL de redirección post-login")
	create.Flags().StringVar(&claimsCSV, "claims", "email", "claims a proyectar, separados por coma")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("redirect-url")

	var (
		serviceID string
		userID    string
		revoke    bool
	)
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Activa (o revoca) el grant de un usuario sobre un service provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, ctx, cleanup, err := openStore(*cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := st.Upsert(ctx, &repository.TenantGrant{
				TenantID: serviceID,
				UserID:   userID,
				IsActive: !revoke,
			}); err != nil {
				return err
			}
			if revoke {
				fmt.Println("grant revocado")
			} else {
				fmt.Println("grant activo")
			}
			return nil
		},
	}
	grant.Flags().StringVar(&serviceID, "service-id", "", "UUID del service provider")
	grant.Flags().StringVar(&userID, "user-id", "", "UUID del usuario")
	grant.Flags().BoolVar(&revoke, "revoke", false, "revocar en lugar de activar")
	_ = grant.MarkFlagRequired("service-id")
	_ = grant.MarkFlagRequired("user-id")

	cmd.AddCommand(create, grant)
	return cmd
}

func userCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Alta mínima de usuarios (seed/pruebas)",
	}

	var (
		emailAddr string
		username  string
		password  string
		role      string
		mfaOn     bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, ctx, cleanup, err := openStore(*cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			u := &repository.User{
				ID:         uuid.NewString(),
				Email:      emailAddr,
				Username:   username,
				Role:       role,
				MFAEnabled: mfaOn,
				Metadata:   map[string]any{},
			}
			if err := st.CreateUser(ctx, u, password); err != nil {
				return err
			}
			fmt.Printf("user_id: %s\n", u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&emailAddr, "email", "", "email del usuario")
	create.Flags().StringVar(&username, "username", "", "nombre de usuario")
	create.Flags().StringVar(&password, "password", "", "password (vacío = solo passwordless)")
	create.Flags().StringVar(&role, "role", "", "rol opcional")
	create.Flags().BoolVar(&mfaOn, "mfa", false, "exigir MFA al usuario")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("username")

	cmd.AddCommand(create)
	return cmd
}
