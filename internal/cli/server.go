package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"quizhub/internal/app"
	"quizhub/internal/config"
	"quizhub/internal/infra/memory"
	pgloader "quizhub/internal/infra/postgres"
	redisstore "quizhub/internal/infra/redis"
	"quizhub/internal/infra/sqlstore"
	"quizhub/internal/logger"
	"quizhub/internal/metrics"
	transport "quizhub/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backend is everything the services need, plus what must be closed on exit.
type backend struct {
	quizzes  app.QuizStore
	users    app.UserStore
	log      app.AttemptLog
	loader   memory.QuizLoader
	cache    app.QuizRepository
	attempts app.AttemptStore

	db     *bun.DB
	pool   *pgxpool.Pool
	redis  *redis.Client
	closed []func()
}

func (b *backend) Close() {
	for i := len(b.closed) - 1; i >= 0; i-- {
		b.closed[i]()
	}
}

func (b *backend) ping(ctx context.Context) error {
	if b.db != nil {
		if err := b.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New("quizhub", cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	m := metrics.New()
	auth := app.NewAuthService(b.users, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	quizzes := app.NewQuizService(b.quizzes, b.cache, b.log).WithLogger(log)
	taking := app.NewTakingService(b.cache, b.attempts, b.log).WithObserver(m)

	api := transport.NewAPI(quizzes, taking, auth, log)
	ws := transport.NewWSHandler(taking, auth, log)
	handler := transport.NewRouter(api, ws, transport.RouterOptions{
		Logger:      log,
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
		Health: func(r *http.Request) error {
			return b.ping(r.Context())
		},
	})

	if b.db != nil {
		go reportPoolStats(ctx, b.db, m)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		log.Entry().WithField("port", finalPort).WithField("driver", cfg.Database.Driver).Info("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Entry().WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Entry().Info("shutting down server...")
	case <-ctx.Done():
		log.Entry().Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openBackend picks storage from config: memory or a bun SQL store for the
// authoritative data, Redis or process memory for the cache and attempt state.
func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*backend, error) {
	b := &backend{}

	if cfg.UsesSQL() {
		db, err := sqlstore.Open(ctx, sqlstore.Driver(cfg.Database.Driver), cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.closed = append(b.closed, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, log); err != nil {
			b.Close()
			return nil, err
		}
		store := sqlstore.New(db)
		b.quizzes, b.users, b.log, b.loader = store, store, store, store
	} else {
		store := memory.NewStore()
		b.quizzes, b.users, b.log, b.loader = store, store, store, store
	}

	if cfg.Database.Driver == config.DriverPostgres {
		url := cfg.Postgres.URL
		if url == "" {
			url = cfg.Database.DSN
		}
		pool, err := pgxpool.Connect(ctx, url)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect pgx pool: %w", err)
		}
		b.pool = pool
		b.closed = append(b.closed, pool.Close)
		b.loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Attempt.TTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.redis = client
		b.closed = append(b.closed, func() { _ = client.Close() })
		b.cache = redisstore.NewQuizRepository(client, b.loader, quizTTL)
		b.attempts = redisstore.NewAttemptStore(client, attemptTTL)
	} else {
		b.cache = memory.NewQuizRepository(b.loader, quizTTL)
		b.attempts = memory.NewAttemptStore(attemptTTL)
	}
	return b, nil
}

func reportPoolStats(ctx context.Context, db *bun.DB, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RecordDBPoolStats(db.Stats())
		}
	}
}
