package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/expense-tracker/internal/auth/postgres"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-tracker/internal/expense/postgres"
	"github.com/frahmantamala/expense-tracker/internal/payment"
	"github.com/frahmantamala/expense-tracker/internal/stats"
	statsPostgres "github.com/frahmantamala/expense-tracker/internal/stats/postgres"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/openapi"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	"github.com/frahmantamala/expense-tracker/internal/user"
	userPostgres "github.com/frahmantamala/expense-tracker/internal/user/postgres"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *database
	EventBus  *events.EventBus
	Forwarder *events.AMQPForwarder
	Router    *chi.Mux
	Logger    *slog.Logger
}

func startHTTPServer() {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.DB.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close drains pending event handlers before the broker and the database go
// away.
func (d *Dependencies) close() {
	d.EventBus.Wait()
	if d.Forwarder != nil {
		if err := d.Forwarder.Close(); err != nil {
			d.Logger.Error("AMQP close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(ctx, config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus, forwarder, err := initEventBus(config.Events, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config:    config,
		DB:        db,
		EventBus:  bus,
		Forwarder: forwarder,
		Router:    chi.NewRouter(),
		Logger:    lg,
	}

	if err := setupRoutes(ctx, deps); err != nil {
		deps.close()
		return nil, err
	}
	return deps, nil
}

// initEventBus always records an audit trail; events are also forwarded to
// RabbitMQ when a broker is configured.
func initEventBus(cfg internal.EventsConfig, lg *slog.Logger) (*events.EventBus, *events.AMQPForwarder, error) {
	bus := events.NewEventBus(lg)
	events.RegisterAudit(bus, lg)

	if cfg.AMQPURL == "" {
		return bus, nil, nil
	}

	forwarder, err := events.DialAMQPForwarder(cfg.AMQPURL, cfg.Exchange, lg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect event broker: %w", err)
	}
	forwarder.Register(bus)
	lg.Info("forwarding expense events", "exchange", cfg.Exchange)
	return bus, forwarder, nil
}

func setupRoutes(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	queryTimeout := cfg.Database.QueryTimeout

	base := transport.NewBaseHandler(lg)

	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration, cfg.Security.RefreshTokenDuration)
	authService := auth.NewService(authPostgres.NewAccountRepository(deps.DB.Gorm, queryTimeout), tokenGen, cfg.Security.BCryptCost, lg)

	photos, err := user.NewDiskPhotoStore(cfg.Uploads.Dir, cfg.Uploads.MaxPhotoBytes)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	userService := user.NewService(userPostgres.NewUserRepository(deps.DB.Gorm, queryTimeout), photos, lg)

	expenseService := expense.NewService(expensePostgres.NewExpenseRepository(deps.DB.Gorm, queryTimeout), deps.EventBus, lg)
	statsService := stats.NewService(statsPostgres.NewStatsRepository(deps.DB.SQL, queryTimeout), cfg.Reporting.TopUsers, lg)

	var spec *openapi.Spec
	if cfg.Server.OpenAPISpec != "" {
		spec, err = openapi.LoadSpec(ctx, cfg.Server.OpenAPISpec)
		if err != nil {
			if cfg.Server.ValidateRequests {
				return fmt.Errorf("failed to load API description: %w", err)
			}
			lg.Warn("API description unavailable, docs disabled", "path", cfg.Server.OpenAPISpec, "error", err)
			spec = nil
		}
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Base:             base,
		Health:           rest.NewHealthHandler(base, deps.DB.SQL, deps.DB.Driver),
		Auth:             auth.NewHandler(base, authService),
		User:             user.NewHandler(base, userService, cfg.Uploads.MaxPhotoBytes),
		Expense:          expense.NewHandler(base, expenseService),
		Stats:            stats.NewHandler(base, statsService),
		Category:         category.NewHandler(base),
		Payment:          payment.NewHandler(base),
		Spec:             spec,
		ValidateRequests: cfg.Server.ValidateRequests,
		AllowedOrigins:   cfg.Server.Origins(),
		UploadDir:        cfg.Uploads.Dir,
	})
	return nil
}
