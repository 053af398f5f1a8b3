package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/food-shelter/internal/adapter/geocoding"
	"github.com/rl1809/food-shelter/internal/adapter/handler"
	"github.com/rl1809/food-shelter/internal/adapter/metrics"
	"github.com/rl1809/food-shelter/internal/adapter/storage"
	"github.com/rl1809/food-shelter/internal/config"
	"github.com/rl1809/food-shelter/internal/core/service"
	"github.com/rl1809/food-shelter/internal/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Info().Msg("connected to mysql")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if cfg.AutoMigrate {
		if err := mysqlAdapter.Migrate(ctx); err != nil {
			return err
		}
		logger.Info().Msg("schema migrated")
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	logger.Info().Msg("connected to redis")
	redisAdapter := storage.NewRedisAdapter(rdb)

	m := metrics.New()

	geocoder := geocoding.NewCached(
		geocoding.NewNominatim(geocoding.NominatimConfig{
			BaseURL:           cfg.GeocoderURL,
			UserAgent:         cfg.GeocoderUserAgent,
			RequestsPerSecond: cfg.GeocodeRate,
			Lookups:           m.GeocodeLookups,
		}),
		redisAdapter, cfg.GeocodeCacheTTL, logger,
	)

	// Initialize services
	inventory := service.NewInventoryService(mysqlAdapter, mysqlAdapter, redisAdapter, logger)
	shelters := service.NewShelterService(mysqlAdapter, geocoder, cfg.GeocodeTimeout, logger)
	records := service.NewRecordService(mysqlAdapter, logger)
	dashboard := service.NewDashboardService(mysqlAdapter, mysqlAdapter, mysqlAdapter)

	grpcServer := grpc.NewServer()
	handler.RegisterInventoryServer(grpcServer, handler.NewGRPCHandler(inventory, m, logger))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(inventory, shelters, records, dashboard, m, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		logger.Info().Msg("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info().Msg("gRPC server stopped")
		return err
	})

	return g.Wait()
}
