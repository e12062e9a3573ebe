package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	"github.com/hydroreg/water-licensing-backend/internal/db"
	"github.com/hydroreg/water-licensing-backend/internal/http/handlers"
	"github.com/hydroreg/water-licensing-backend/internal/http/middleware"
	"github.com/hydroreg/water-licensing-backend/internal/http/server"
	"github.com/hydroreg/water-licensing-backend/internal/observability"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/reform"
	"github.com/hydroreg/water-licensing-backend/internal/repos"
	"github.com/hydroreg/water-licensing-backend/internal/services"
	"github.com/hydroreg/water-licensing-backend/internal/session"
	"github.com/hydroreg/water-licensing-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "water-licensing-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	sessionBackend := strings.ToLower(utils.GetEnv("SESSION_BACKEND", "redis", log))
	sessionTTL := utils.GetEnvAsInt("SESSION_TTL", 3600, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Session store
	log.Info("Setting up session store from main...")
	var sessionStore session.Store
	if sessionBackend == "memory" {
		sessionStore = session.NewMemoryStore(time.Duration(sessionTTL) * time.Second)
	} else {
		redisStore, err := session.NewRedisStore(log)
		if err != nil {
			log.Error("Could not init Redis session store", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	}
	formStore := session.NewFormStore(sessionStore)

	// Water service client
	waterClient, err := water.NewClient(log)
	if err != nil {
		log.Error("Could not init water service client", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	arLicenceRepo := repos.NewARLicenceRepo(thePG, log)

	// Reform core
	registry, err := reform.NewRegistry()
	if err != nil {
		log.Error("Could not load WR22 schemas", "error", err)
		os.Exit(1)
	}
	resolver := reform.NewResolver(registry, waterClient)
	loader := reform.NewLoader(arLicenceRepo, waterClient, log)

	// Services
	log.Info("Setting up Services from main...")
	reformService := services.NewReformService(log, loader, registry, resolver)
	contactService := services.NewContactEntryService(log, waterClient, sessionStore)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler()
	reformHandler := handlers.NewReformHandler(log, reformService, formStore)
	contactHandler := handlers.NewContactHandler(log, contactService, formStore)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)
	csrfMiddleware := middleware.NewCSRFMiddleware(log, sessionStore)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		HealthHandler:  healthHandler,
		ReformHandler:  reformHandler,
		ContactHandler: contactHandler,
		AuthMiddleware: authMiddleware,
		CSRFMiddleware: csrfMiddleware,
	})

	port := utils.GetEnv("PORT", "8000", log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownOTel != nil {
			_ = shutdownOTel(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
