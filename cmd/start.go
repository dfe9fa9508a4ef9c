package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledger-recon/core/config"
	"ledger-recon/core/database"
	"ledger-recon/core/loader"
	"ledger-recon/core/logger"
	"ledger-recon/core/middleware/auth"
	"ledger-recon/core/middleware/rayid"
	"ledger-recon/core/reconcile"
	"ledger-recon/core/scheduler"
	"ledger-recon/feature/ledger"
	"ledger-recon/feature/reconciliation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "ledger-recon/docs/swagger"
)

// @title Ledger Reconciliation API
// @version 1.0
// @description Two-way reconciliation of network transaction extracts against the ledger.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciliation server",
	Long:  `Starts the HTTP server, the reconciliation schedule and all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the ledger. Without it the reconciliation feature stays disabled.
		var gateway reconcile.Gateway
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Ledger database connection failed", zap.Error(err))
		} else {
			store := ledger.NewStore(conn, logg)
			if missing, err := store.VerifySchema(); err != nil {
				logg.Warn("Ledger schema check failed", zap.Error(err))
			} else if len(missing) > 0 {
				logg.Warn("Ledger schema incomplete, run 'ledger migrate'", zap.Int("missing_columns", len(missing)))
			}
			gateway = store
			logg.Info("Connected to ledger database", zap.String("driver", cfg.Database.Driver))
		}

		// 4. Initialize Storage (only when used)
		client, err := optionalStorage(cfg)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 6. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		svc := reconciliation.NewService(gateway, client, cfg.Storage, cfg.Reconcile, logg)
		mgr.Register(reconciliation.NewFeature(svc))

		// Middleware: ray id first so every log line can be traced.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger stays public.
		app.Get("/swagger/*", swagger.HandlerDefault)

		if cfg.Server.AuthEnabled() {
			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		} else {
			logg.Warn("API key not configured, endpoints are unauthenticated")
		}

		// 7. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Schedule
		sched := scheduler.New(logg)
		if gateway != nil {
			if _, ok, err := reconciliation.Schedule(sched, svc, cfg.Schedule); err != nil {
				logg.Fatal("Failed to schedule reconciliation", zap.Error(err))
			} else if ok {
				sched.Start()
			}
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		sched.Stop(ctx)
		if err := app.ShutdownWithContext(ctx); err != nil {
			logg.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
		if err := svc.Close(ctx); err != nil {
			logg.Warn("Runs still active at shutdown", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
