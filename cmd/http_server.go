package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betselot/gojo-bookings/internal"
	"github.com/betselot/gojo-bookings/internal/booking"
	bookingstore "github.com/betselot/gojo-bookings/internal/booking/postgres"
	"github.com/betselot/gojo-bookings/internal/core/events"
	"github.com/betselot/gojo-bookings/internal/gateway"
	"github.com/betselot/gojo-bookings/internal/listing"
	listingstore "github.com/betselot/gojo-bookings/internal/listing/postgres"
	"github.com/betselot/gojo-bookings/internal/notification"
	"github.com/betselot/gojo-bookings/internal/payment"
	paymentstore "github.com/betselot/gojo-bookings/internal/payment/postgres"
	"github.com/betselot/gojo-bookings/internal/transport"
	"github.com/betselot/gojo-bookings/internal/transport/rest"
	"github.com/betselot/gojo-bookings/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	appLogger := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the same pgx-backed *sql.DB the health check pings
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// repositories
	paymentRepo := paymentstore.NewPaymentRepository(gormDB)
	bookingRepo := bookingstore.NewBookingRepository(gormDB)
	listingRepo := listingstore.NewListingRepository(gormDB)

	// reconciliation engine and gateway client
	eventBus := events.NewEventBus(appLogger)
	engine := payment.NewEngine(paymentRepo, eventBus, appLogger)
	chapaClient := gateway.NewClient(config.Chapa, appLogger)

	// services
	paymentService := payment.NewService(paymentRepo, engine, chapaClient, config.Chapa, appLogger)
	listingService := listing.NewService(listingRepo, appLogger)
	bookingService := booking.NewService(bookingRepo, listingService, paymentService, appLogger)

	// notifications ride the event bus; the engine publishes only on won
	// transitions, so every enqueued message maps to exactly one settlement
	mailClient := notification.NewMailClient(config.Mail, appLogger)
	dispatcher := notification.NewDispatcher(config.Mail, mailClient, appLogger)
	notificationHandler := notification.NewEventHandler(dispatcher, bookingRepo, appLogger)
	notificationHandler.RegisterEventHandlers(eventBus)

	// handlers
	baseHandler := transport.NewBaseHandler(appLogger)
	listingHandler := listing.NewHandler(baseHandler, listingService)
	bookingHandler := booking.NewHandler(baseHandler, bookingService, appLogger)
	paymentHandler := payment.NewHandler(baseHandler, paymentService, appLogger)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, appLogger)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, listingHandler, bookingHandler, paymentHandler, webhookHandler, appLogger)

	return &Dependencies{
		Config:     config,
		Logger:     appLogger,
		DB:         db,
		Router:     router,
		Dispatcher: dispatcher,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
