package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/config"
	"quizroom-service/internal/infra/memory"
	"quizroom-service/internal/infra/postgres"
	redisinfra "quizroom-service/internal/infra/redis"
	transport "quizroom-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
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
	roomTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	fallback := memory.NewQuestionBank(memory.SampleQuestions())

	var source app.QuestionSource = fallback
	if pool != nil {
		source = postgres.NewQuestionSource(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		source = redisinfra.NewQuestionCache(redisClient, source, quizTTL)
	} else {
		source = memory.NewQuestionCache(source, quizTTL)
	}

	var rooms app.RoomRegistry
	if redisClient != nil {
		rooms = redisinfra.NewRoomRegistry(redisClient, roomTTL)
	} else {
		rooms = memory.NewRoomRegistry()
	}

	var profiles app.ProfileService
	var achievements app.AchievementService
	if redisClient != nil {
		store := redisinfra.NewProfileStore(redisClient)
		profiles, achievements = store, store
	} else {
		store := memory.NewProfileStore()
		profiles, achievements = store, store
	}

	var archive app.ResultArchive = memory.NewResultArchive()
	if pool != nil {
		archive = postgres.NewResultArchive(pool)
	}

	timing := app.DefaultTiming()
	timing.TimeLimit = config.TTLDuration(cfg.Quiz.TimeLimit, timing.TimeLimit)
	timing.RevealDelay = config.TTLDuration(cfg.Quiz.RevealDelay, timing.RevealDelay)
	timing.QuestionGap = config.TTLDuration(cfg.Quiz.QuestionGap, timing.QuestionGap)
	timing.StartDelay = config.TTLDuration(cfg.Quiz.StartDelay, timing.StartDelay)

	service := app.NewRoomService(app.Deps{
		Rooms:        rooms,
		Source:       source,
		Fallback:     fallback,
		Profiles:     profiles,
		Achievements: achievements,
		Archive:      archive,
	}, timing, cfg.Quiz.QuestionCount)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go service.RunSweeper(sweepCtx,
		config.TTLDuration(cfg.Rooms.SweepInterval, 10*time.Minute),
		config.TTLDuration(cfg.Rooms.IdleTimeout, time.Hour))

	wsHandler := transport.NewWSHandler(service)

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
		log.Printf("starting quiz room service on :%s", finalPort)
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
