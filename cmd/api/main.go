package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/georgemunganga/epharmacy-backend/internal/config"
	"github.com/georgemunganga/epharmacy-backend/internal/database"
	"github.com/georgemunganga/epharmacy-backend/internal/migrations"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/admin"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/auth"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/cart"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/changefeed"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/order"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/storefront"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "epharmacy ", log.LstdFlags)
	bus := store.NewBus(store.WithBusLogger(logger))

	// ── Shared store ────────────────────────────────────────
	var backend store.Backend
	if cfg.StoreDriver == config.DriverMemory {
		backend = store.NewMemoryBackend()
	} else {
		db, err := database.Connect(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := migrations.Run(db); err != nil {
			log.Fatal(err)
		}
		backend = store.NewSQLBackend(db)

		if cfg.StoreDriver == config.DriverPostgres {
			relay := store.NewPGRelay(db, cfg.StoreDSN, bus, logger)
			bus.SetRelay(relay)
			go func() {
				if err := relay.Listen(ctx); err != nil && ctx.Err() == nil {
					logger.Printf("change relay stopped: %v", err)
				}
			}()
		}
	}
	fmt.Printf("Connected to %s store\n", cfg.StoreDriver)

	// ── Catalog source ──────────────────────────────────────
	var source catalog.Source
	if cfg.CatalogURL != "" {
		source = catalog.NewHTTPSource(cfg.CatalogURL)
	} else {
		source = &catalog.FileSource{Path: cfg.CatalogFile, Logger: logger}
	}

	tab, err := storefront.Open(ctx, backend, bus, storefront.Options{Source: source, Logger: logger})
	if err != nil {
		log.Fatal(err)
	}
	go func() {
		if err := tab.Sync.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("tab sync stopped: %v", err)
		}
	}()

	authService := auth.NewService(tab.Users, cfg.JWTSecret, cfg.TokenTTL)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(auth.Middleware(authService))

	user.NewHandler(tab.Users, tab.Addresses).RegisterRoutes(router)
	auth.NewHandler(authService).RegisterRoutes(router)
	catalog.NewHandler(tab.Catalog).RegisterRoutes(router)
	cart.NewHandler(tab.Carts, tab.Catalog).RegisterRoutes(router)
	order.NewHandler(tab.Orders).RegisterRoutes(router)
	admin.NewHandler(tab.Console).RegisterRoutes(router)
	payment.NewHandler().RegisterRoutes(router)
	changefeed.NewHandler(bus, logger).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()
	fmt.Printf("ePharmacy API server starting on :%s\n", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
