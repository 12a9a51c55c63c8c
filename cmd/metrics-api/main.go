package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/store-metrics/internal/config"
	"github.com/deppfellow/store-metrics/internal/database"
	"github.com/deppfellow/store-metrics/internal/handler"
	"github.com/deppfellow/store-metrics/internal/logger"
	"github.com/deppfellow/store-metrics/internal/repository"
	"github.com/deppfellow/store-metrics/internal/router"
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/deppfellow/store-metrics/internal/service"
)

// DefaultContextTimeout bounds migrations at startup and the graceful
// shutdown of in-flight requests.
const DefaultContextTimeout = 30

func main() {
	cfg := config.MustLoadConfig()

	// New Relic is initialized first so the logger can forward to it.
	loggerService := logger.NewLoggerService(&cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(&cfg.Observability, loggerService)

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout*time.Second)
		err := database.Migrate(ctx, &log, cfg)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repositories")
	}

	services, err := service.NewServices(repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)

	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
