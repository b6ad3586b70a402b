package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oumaoumag/eventvex/internal/access"
	"github.com/oumaoumag/eventvex/internal/app"
	"github.com/oumaoumag/eventvex/internal/auth"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/config"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/oumaoumag/eventvex/internal/relay"
	"github.com/oumaoumag/eventvex/internal/storage/memory"
	"github.com/oumaoumag/eventvex/internal/storage/postgres"
	transporthttp "github.com/oumaoumag/eventvex/internal/transport/http"
	"github.com/oumaoumag/eventvex/migrations"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const startupTimeout = 10 * time.Second

// grantingOracle is an oracle that bootstrap grants can be written to.
type grantingOracle interface {
	access.Oracle
	Grant(ctx context.Context, addr domain.Address, role access.Role) error
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (yaml, json or toml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}
	if cfg.EnvFile != "" {
		logger.WithField("path", cfg.EnvFile).Info("loaded env file")
	}
	if cfg.Auth.Secret == config.DevAuthSecret {
		logger.Warn("auth.secret is the development default; set EVENTVEX_AUTH_SECRET")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	settings, err := cfg.Settings()
	if err != nil {
		logger.WithError(err).Fatal("platform settings")
	}

	var (
		store  app.Store
		health func(ctx context.Context) error
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := openPool(startupCtx, cfg.Database)
		if err != nil {
			logger.WithError(err).Fatal("connect to db")
		}
		defer pool.Close()

		applied, err := migrations.Apply(startupCtx, pool)
		if err != nil {
			logger.WithError(err).Fatal("apply migrations")
		}
		logger.WithField("applied", applied).Info("migrations up to date")

		pg := postgres.New(pool)
		if err := pg.InitSettings(startupCtx, settings); err != nil {
			logger.WithError(err).Fatal("init platform settings")
		}
		store, health = pg, pool.Ping
	default:
		mem := memory.New()
		if err := mem.SaveSettings(startupCtx, settings); err != nil {
			logger.WithError(err).Fatal("init platform settings")
		}
		store = mem
		logger.Warn("using the in-memory store; state is lost on exit")
	}

	oracle, closeOracle, err := openOracle(startupCtx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("connect to redis")
	}
	defer closeOracle()
	if err := applyGrants(startupCtx, oracle, cfg.Access); err != nil {
		logger.WithError(err).Fatal("apply access grants")
	}

	clk := clock.NewSystem()
	opts := []app.Option{app.WithLogger(logger), app.WithLimits(cfg.Limits.Domain())}
	ledger := app.NewLedgerService(store, oracle, clk, opts...)
	svc := transporthttp.Services{
		Registry: app.NewRegistryService(store, oracle, clk, opts...),
		Ledger:   ledger,
		Market:   app.NewMarketplaceService(store, oracle, clk, ledger, opts...),
		Admin:    app.NewAdminService(store, oracle, clk, opts...),
		Accounts: app.NewAccountService(store, oracle, clk, opts...),
		Records:  app.NewRecordService(store),
		Health:   health,
	}

	issuer, err := auth.NewIssuer([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk)
	if err != nil {
		logger.WithError(err).Fatal("token issuer")
	}

	router := transporthttp.NewRouter(svc, logger)
	handler := transporthttp.RequestLogger(
		transporthttp.CORS(cfg.Server.CORSOrigins, transporthttp.Authenticate(issuer, router)),
		logger,
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) > 0 {
		pub := relay.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.WithError(err).Warn("close kafka writer")
			}
		}()
		r := relay.New(store, pub, relay.Config{
			Consumer: cfg.Relay.Consumer,
			Batch:    cfg.Relay.Batch,
			Interval: cfg.Relay.Interval,
		}, logger.WithField("component", "relay"))
		go func() {
			if err := r.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("relay stopped")
			}
		}()
		logger.WithField("topic", cfg.Kafka.Topic).Info("relaying records to kafka")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	logger.WithFields(logrus.Fields{"port": cfg.Server.Port, "store": cfg.Store.Driver}).Info("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-runCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}
	logger.Info("server stopped")
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// openOracle reads profiles from redis when an address is configured and
// falls back to a process-local directory otherwise.
func openOracle(ctx context.Context, cfg config.RedisConfig) (grantingOracle, func(), error) {
	if cfg.Addr == "" {
		return access.NewDirectory(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return access.NewRedisOracle(rdb), func() { _ = rdb.Close() }, nil
}

func applyGrants(ctx context.Context, oracle grantingOracle, cfg config.AccessConfig) error {
	grants, err := cfg.Grants()
	if err != nil {
		return err
	}
	for _, g := range grants {
		role, err := access.ParseRole(g.Role)
		if err != nil {
			return err
		}
		if err := oracle.Grant(ctx, g.Address, role); err != nil {
			return err
		}
	}
	return nil
}
