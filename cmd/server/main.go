// Package main is the entry point for the Team D platform backend binary.
// It dispatches four subcommands — serve, migrate, seed, and version — via a
// simple switch on os.Args so the binary's full CLI surface is readable in one
// place without requiring a cobra dependency. The serve command runs
// auto-migration on startup so freshly deployed containers never need a
// separate migration step.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // served only on the dedicated profiling port, never on the Gin listener
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/large-event/teamd-backend/internal/api"
	"github.com/large-event/teamd-backend/internal/auth"
	"github.com/large-event/teamd-backend/internal/config"
	"github.com/large-event/teamd-backend/internal/db"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return runMigrations(cfg, os.Args[2])
	case "seed":
		return runSeed(cfg)
	case "version":
		fmt.Printf("Team D backend v%s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, seed, version", command)
	}
}

func serve(cfg *config.Config) error {
	// Initialise structured logging first so all subsequent output uses the
	// configured format and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Fails fast in production when TEAMD_JWT_SECRET is unset.
	if err := auth.ValidateTokenSecret(); err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	slog.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	telemetry.StartDBStatsCollector(database)

	slog.Info("running database migrations")
	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	schemaVersion, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		slog.Warn("failed to read migration version", "error", err)
	} else {
		slog.Info("database schema ready", "version", schemaVersion, "dirty", dirty)
	}

	// First-run bootstrap: when no system admin exists, generate a one-time
	// setup token for POST /api/setup/admin.
	sqlxDB := sqlx.NewDb(database, "postgres")
	userRepo := repositories.NewUserRepository(database)
	settingsRepo := repositories.NewSettingsRepository(sqlxDB)
	if err := handleBootstrapToken(userRepo, settingsRepo); err != nil {
		slog.Warn("bootstrap token handling failed", "error", err)
	}

	// Prometheus metrics live on a dedicated port so the scrape path is not
	// reachable through the public API ingress.
	if cfg.Telemetry.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	if cfg.Telemetry.Profiling.Enabled {
		pprofAddr := fmt.Sprintf(":%d", cfg.Telemetry.Profiling.Port)
		go func() {
			slog.Info("starting pprof server", "addr", pprofAddr)
			// net/http/pprof registers its handlers on DefaultServeMux at init.
			srv := &http.Server{
				Addr:         pprofAddr,
				Handler:      http.DefaultServeMux,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("pprof server error", "error", err)
			}
		}()
	}

	router, bgServices := api.NewRouter(cfg, database)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("starting server",
			"addr", cfg.Server.GetAddress(),
			"base_url", cfg.Server.BaseURL,
			"environment", cfg.Server.Environment)

		var err error
		if cfg.Security.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}

// handleBootstrapToken generates the one-time setup token when the deployment
// has no system admin yet. The raw token is printed to the log once; only its
// bcrypt hash is stored.
func handleBootstrapToken(userRepo *repositories.UserRepository, settingsRepo *repositories.SettingsRepository) error {
	ctx := context.Background()

	completed, err := settingsRepo.IsBootstrapCompleted(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap status: %w", err)
	}
	if completed {
		return nil
	}

	admins, err := userRepo.CountSystemAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count system admins: %w", err)
	}
	if admins > 0 {
		// Admin exists (seeded or restored database); no bootstrap needed.
		return settingsRepo.MarkBootstrapCompleted(ctx)
	}

	existingHash, err := settingsRepo.GetBootstrapTokenHash(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing bootstrap token: %w", err)
	}
	if existingHash != "" {
		log.Println("")
		log.Println(strings.Repeat("═", 66))
		log.Println("  SETUP REQUIRED: A setup token was previously generated.")
		log.Println("  If you lost it, delete the bootstrap_token_hash row from")
		log.Println("  system_settings and restart the server to generate a new one.")
		log.Println(strings.Repeat("═", 66))
		log.Println("")
		return nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("failed to generate setup token: %w", err)
	}
	rawToken := "teamd_setup_" + base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(tokenBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(rawToken), 12)
	if err != nil {
		return fmt.Errorf("failed to hash setup token: %w", err)
	}

	if err := settingsRepo.SetBootstrapTokenHash(ctx, string(hash)); err != nil {
		return fmt.Errorf("failed to store setup token hash: %w", err)
	}

	separator := strings.Repeat("═", 66)
	log.Println("")
	log.Println(separator)
	log.Println("  INITIAL SETUP REQUIRED")
	log.Println("")
	log.Printf("  Setup Token: %s", rawToken)
	log.Println("")
	log.Println("  Create the first system administrator with:")
	log.Println("    POST /api/setup/admin")
	log.Println("    {\"setupToken\": \"<token>\", \"email\": \"...\", \"name\": \"...\"}")
	log.Println("")
	log.Println("  This token is single-use and is invalidated after setup.")
	log.Println(separator)
	log.Println("")

	return nil
}

func runMigrations(cfg *config.Config, direction string) error {
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	schemaVersion, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		slog.Warn("failed to read migration version", "error", err)
	} else {
		slog.Info("migration complete", "direction", direction, "version", schemaVersion, "dirty", dirty)
	}
	return nil
}

// runSeed loads the development fixture: three organizations, seven
// instances, fourteen users, and the access grants connecting them.
func runSeed(cfg *config.Config) error {
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Seed(ctx, database); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed")
	return nil
}
