package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	pginfra "quizroom-service/internal/infra/postgres"
	pgmigrations "quizroom-service/internal/infra/postgres/migrations"
	redisinfra "quizroom-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizRoundTripEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, "quiz-1", integrationQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	source := redisinfra.NewQuestionCache(redisClient, pginfra.NewQuestionSource(pool), 5*time.Minute)
	profiles := redisinfra.NewProfileStore(redisClient)
	service := app.NewRoomService(app.Deps{
		Rooms:        redisinfra.NewRoomRegistry(redisClient, 5*time.Minute),
		Source:       source,
		Fallback:     nil,
		Profiles:     profiles,
		Achievements: profiles,
		Archive:      pginfra.NewResultArchive(pool),
	}, app.Timing{
		TimeLimit:   2 * time.Second,
		RevealDelay: 20 * time.Millisecond,
		QuestionGap: 20 * time.Millisecond,
		StartDelay:  10 * time.Millisecond,
	}, 10)

	hostCh, err := service.Join(ctx, "ROOM42", "conn-h", "Hana", "user-h")
	if err != nil {
		t.Fatalf("join host: %v", err)
	}
	if _, err := service.Join(ctx, "ROOM42", "conn-p", "Piotr", ""); err != nil {
		t.Fatalf("join player: %v", err)
	}

	if err := service.StartQuiz(ctx, "ROOM42", "conn-h", "quiz-1"); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	awaitEvent(t, hostCh, domain.EventNewQuestion)

	if err := service.SubmitAnswer(ctx, "ROOM42", "conn-h", 1, 2); err != nil {
		t.Fatalf("submit host: %v", err)
	}
	if err := service.SubmitAnswer(ctx, "ROOM42", "conn-p", 0, 2); err != nil {
		t.Fatalf("submit player: %v", err)
	}

	ended := awaitEvent(t, hostCh, domain.EventQuizEnded).Payload.(domain.QuizEndedPayload)
	if len(ended.Results) != 2 || ended.Results[0].ConnectionID != "conn-h" {
		t.Fatalf("expected host leading, got %+v", ended.Results)
	}

	// Archive write and XP grant are asynchronous; poll for both.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var count int
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM game_results WHERE room_id=$1`, "ROOM42").Scan(&count); err != nil {
			t.Fatalf("count game_results: %v", err)
		}
		xp, _ := redisClient.Get(ctx, "quiz:xp:user-h").Int()
		if count == 1 && xp > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("side effects incomplete: archived=%d xp=%d", count, xp)
		}
		time.Sleep(50 * time.Millisecond)
	}

	members, err := redisClient.SMembers(ctx, "quiz:achievements:user-h").Result()
	if err != nil {
		t.Fatalf("read achievements: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected first-quiz and top-score achievements, got %v", members)
	}
}

func awaitEvent(t *testing.T, ch <-chan domain.Event, typ string) domain.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func integrationQuiz() []domain.Question {
	return []domain.Question{
		{Text: "pick b", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1, Difficulty: domain.DifficultyEasy, Category: "t"},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn, quizID string, questions []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO custom_quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quizID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
