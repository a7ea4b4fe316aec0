package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"route-board-service/internal/adapters/cache"
	"route-board-service/internal/adapters/directions"
	"route-board-service/internal/adapters/publish"
	"route-board-service/internal/adapters/render"
	"route-board-service/internal/adapters/repositories"
	"route-board-service/internal/api"
	"route-board-service/internal/config"
	"route-board-service/internal/platform/db"
	"route-board-service/internal/platform/logging"
	"route-board-service/internal/platform/metrics"
	"route-board-service/internal/ports"
	"route-board-service/internal/services"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres, ORS, Redis, MQTT) behind ports
// and runs the HTTP server until SIGINT or SIGTERM.
func main() {
	configPath := flag.String("config", config.Get("ROUTEBOARD_CONFIG", ""), "path to a YAML or JSON config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type commandStore interface {
	ports.AssignmentSink
	ports.AssignmentHistory
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Dev() {
		_ = os.Setenv("APP_ENV", "dev")
	}

	log := logging.New("server", cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogDB, err := db.OpenSqlite(cfg.Database.SqlitePath)
	if err != nil {
		return err
	}
	defer catalogDB.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(catalogDB, cfg.Database.SeedPath, *cfg.Database.SeedOnStart, log); err != nil {
		return err
	}

	var pg *sql.DB
	if cfg.Database.PostgresURL != "" {
		pg, err = db.Open(cfg.Database.PostgresURL)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := repositories.InitPostgresSchema(ctx, pg); err != nil {
			return err
		}
	}

	catalog := repositories.NewSqliteRouteCatalog(catalogDB)

	var store commandStore = repositories.NewSqliteAssignmentStore(catalogDB)
	if pg != nil {
		store = repositories.NewSQLAssignmentStore(pg)
	}

	var sink ports.AssignmentSink = store
	if cfg.MQTT.Enabled() {
		pub, err := publish.NewMQTTAssignmentPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, nil)
		if err != nil {
			return err
		}
		defer pub.Close()
		sink = publish.NewMultiSink(logging.New("publish", cfg.Logging.Level), store, pub)
		log.Info().Str("broker", cfg.MQTT.Broker).Str("topic", cfg.MQTT.Topic).Msg("assignment fan-out enabled")
	}

	provider, closeProvider, err := buildDirections(ctx, cfg, catalogDB, pg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	var engineMetrics services.Metrics = services.NopMetrics{}
	var metricsHandler http.Handler
	if cfg.Metrics.On() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec, err := metrics.NewPromRecorder(reg)
		if err != nil {
			return err
		}
		engineMetrics = rec
		metricsHandler = metrics.Handler(reg)
	}

	surface := render.NewMapSurface()
	reconciler := services.NewDirectionsReconciler(
		catalog,
		provider,
		surface,
		services.WithReconcilerLogger(logging.New("reconciler", cfg.Logging.Level)),
		services.WithReconcilerMetrics(engineMetrics),
		services.WithPreferLocalRoads(cfg.Directions.PreferLocalRoads),
	)
	defer reconciler.Close()

	session := services.NewAssignmentSession(
		sink,
		services.WithSessionLogger(logging.New("assignment", cfg.Logging.Level)),
		services.WithSessionMetrics(engineMetrics),
	)

	router := api.NewRouter(api.Deps{
		Catalog: catalog,
		Board:   services.NewRouteBoard(catalog, services.NewSelectionStore(), reconciler),
		Desk:    services.NewAssignmentDesk(catalog, session),
		Map:     surface,
		History: store,
		Metrics: metricsHandler,
		Ping:    catalogDB.PingContext,
		Log:     logging.New("http", cfg.Logging.Level),
	})

	// Timeouts are tuned for cold-cache directions requests (external API latency).
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("directions", cfg.Directions.Provider).Str("cache", cfg.Cache.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// buildDirections picks the routing backend and wraps it with the configured
// cache. The returned func releases cache connections.
func buildDirections(
	ctx context.Context,
	cfg *config.Config,
	catalogDB *sql.DB,
	pg *sql.DB,
	log zerolog.Logger,
) (ports.DirectionsService, func(), error) {
	var svc ports.DirectionsService
	switch cfg.Directions.Provider {
	case config.ProviderStraightLine:
		svc = directions.NewStraightLineProvider()
	default:
		ors, err := directions.NewORSDirectionsProvider(directions.ORSOptions{
			APIKey:  cfg.ORS.APIKey,
			BaseURL: cfg.ORS.BaseURL,
			Profile: cfg.ORS.Profile,
			Timeout: cfg.ORS.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		svc = ors
	}

	noop := func() {}
	switch cfg.Cache.Backend {
	case config.CacheSQL:
		if pg != nil {
			return directions.NewCachedProvider(svc, cache.NewSQLDirectionsCache(pg, cfg.Cache.TTL)), noop, nil
		}
		return directions.NewCachedProvider(svc, cache.NewSqliteDirectionsCache(catalogDB, cfg.Cache.TTL)), noop, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTL).Msg("redis directions cache enabled")
		return directions.NewCachedProvider(svc, cache.NewRedisDirectionsCache(client, cfg.Cache.TTL)), func() { _ = client.Close() }, nil
	}
	return svc, noop, nil
}

func initAndSeed(conn *sql.DB, seedPath string, seed bool, log zerolog.Logger) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if !seed {
		return nil
	}

	err := repositories.SeedFromJSON(conn, seedPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("seed_path", seedPath).Msg("seed file not found, starting with existing catalog")
		return nil
	}
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	log.Info().Str("seed_path", seedPath).Msg("catalog seeded")
	return nil
}
