package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizrunner/internal/catalog"
	"quizrunner/internal/config"
	"quizrunner/internal/infra/memory"
	pgsource "quizrunner/internal/infra/postgres"
	redisstore "quizrunner/internal/infra/redis"
	"quizrunner/internal/stats"
	transport "quizrunner/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	quizzesDir := cfg.Dirs.Quizzes
	if quizzesDir == "" {
		quizzesDir = "quizzes"
	}
	resultsDir := cfg.Dirs.Results
	if resultsDir == "" {
		resultsDir = "results"
	}

	var src catalog.Source = catalog.NewDirSource(quizzesDir)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		src = pgsource.NewQuizSource(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	src = catalog.NewCachedSource(src, quizTTL)

	var store stats.ScoreStore = memory.NewScoreStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		store = redisstore.NewScoreStore(client)
	}

	fileResults := stats.NewFileResults(resultsDir)
	var sink stats.ResultSink = fileResults
	if cfg.Stats.Endpoint != "" {
		sink = stats.NewHTTPSink(cfg.Stats.Endpoint)
	}
	recorder := stats.NewRecorder(store, sink, fileResults, logger)

	server := transport.NewServer(src, recorder, fileResults, quizzesDir, logger)

	httpServer := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Infow("starting quiz server", "port", finalPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infow("shutting down server")
	case <-ctx.Done():
		logger.Infow("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
