package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"persona-survey-bot/internal/app"
	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/config"
	"persona-survey-bot/internal/infra/memory"
	pginfra "persona-survey-bot/internal/infra/postgres"
	redisinfra "persona-survey-bot/internal/infra/redis"
	"persona-survey-bot/internal/notify"
	"persona-survey-bot/internal/scheduler"
	transport "persona-survey-bot/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the survey server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	contentDir := cfg.Content.Dir
	if contentDir == "" {
		contentDir = "questions"
	}
	var loader bank.Loader = bank.NewFileLoader(contentDir)
	if pool != nil {
		loader = pginfra.NewDatasetLoader(pool)
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	if redisClient != nil {
		loader = redisinfra.NewDatasetCache(redisClient, loader, contentTTL)
	} else {
		loader = memory.NewDatasetCache(loader, contentTTL)
	}

	banks := bank.NewRegistry(loader)
	banks.LoadAll(ctx)

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var users app.UserStore
	var followStore scheduler.FollowUpStore
	if pool != nil {
		pgUsers := pginfra.NewUserStore(pool)
		users = pgUsers
		followStore = pgUsers
	} else {
		memUsers := memory.NewUserStore()
		users = memUsers
		followStore = memUsers
	}

	var notifier scheduler.Notifier = notify.Log{}
	if cfg.Telegram.Token != "" {
		notifier = notify.NewTelegram(cfg.Telegram.Token)
	}

	service := app.NewSurveyService(sessions, banks, users, cfg.Survey.Debug)
	wsHandler := transport.NewWSHandler(service, notifier, cfg.Telegram.AdminChatID)

	followInterval := config.TTLDuration(cfg.Survey.FollowUpInterval, time.Minute)
	if cfg.Survey.Debug {
		followInterval = time.Second
	}
	followUps := scheduler.NewFollowUp(followStore, notifier, followInterval)
	followUps.Start(ctx)
	defer followUps.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting survey service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
