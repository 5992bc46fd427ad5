package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"persona-survey-bot/internal/app"
	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/domain"
	pginfra "persona-survey-bot/internal/infra/postgres"
	pgmigrations "persona-survey-bot/internal/infra/postgres/migrations"
	infraredis "persona-survey-bot/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSurveyEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedDatasets(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := infraredis.NewDatasetCache(redisClient, pginfra.NewDatasetLoader(pool), 5*time.Minute)
	banks := bank.NewRegistry(loader)
	banks.LoadAll(ctx)

	users := pginfra.NewUserStore(pool)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewSurveyService(sessions, banks, users, true)

	if _, err := service.CachedUser(ctx, 1001, "alice"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := service.Start(ctx, 1001); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, token := range []string{"1", "2", "3", "4"} {
		if err := service.SubmitPriority(ctx, 1001, token); err != nil {
			t.Fatalf("priority %s: %v", token, err)
		}
	}
	if err := service.AdvanceInstrument(ctx, 1001); err != nil {
		t.Fatalf("advance to thinking: %v", err)
	}

	for _, option := range domain.ThinkingOptions {
		if err := service.SubmitThinking(ctx, 1001, option); err != nil {
			t.Fatalf("thinking %s: %v", option, err)
		}
	}
	if err := service.AdvanceInstrument(ctx, 1001); err != nil {
		t.Fatalf("advance to personality: %v", err)
	}

	for _, answer := range []string{"да", "да", "нет"} {
		if err := service.SubmitPersonality(ctx, 1001, answer); err != nil {
			t.Fatalf("personality %s: %v", answer, err)
		}
	}
	if err := service.AdvanceInstrument(ctx, 1001); err != nil {
		t.Fatalf("advance past personality: %v", err)
	}

	res := service.Finalize(ctx, 1001)
	if res.Empty() {
		t.Fatalf("expected a populated result")
	}
	if res.Temperament != "Сангвиник" {
		t.Fatalf("expected Сангвиник, got %s", res.Temperament)
	}

	user, err := users.GetOrCreate(ctx, 1001, "")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !user.Completed {
		t.Fatalf("record must be completed: %+v", user)
	}
	if user.StyleScores["Синтетический"] != 5 {
		t.Fatalf("unexpected persisted styles: %v", user.StyleScores)
	}
	if user.ScaleScores["E"] != 2 {
		t.Fatalf("unexpected persisted scales: %v", user.ScaleScores)
	}
	if user.Temperament != "Сангвиник" {
		t.Fatalf("unexpected persisted temperament: %s", user.Temperament)
	}
}

func TestFollowUpQueriesEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserStore(pool)
	if _, err := users.GetOrCreate(ctx, 2001, "bob"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	link := "https://t.me/personal_bot"
	due := time.Now().Add(-time.Minute)
	if err := users.Update(ctx, 2001, domain.UserUpdate{FollowUpLink: &link, FollowUpAt: &due}); err != nil {
		t.Fatalf("schedule follow-up: %v", err)
	}

	listed, err := users.ListDueFollowUps(ctx, time.Now())
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(listed) != 1 || listed[0].UserID != 2001 || listed[0].FollowUpLink != link {
		t.Fatalf("expected user 2001 due, got %+v", listed)
	}

	if err := users.ClearFollowUp(ctx, 2001); err != nil {
		t.Fatalf("clear follow-up: %v", err)
	}
	listed, err = users.ListDueFollowUps(ctx, time.Now())
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("cleared follow-up must not be listed, got %+v", listed)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "survey", "POSTGRES_PASSWORD": "surveypass", "POSTGRES_DB": "surveydb"},
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
	dsn := fmt.Sprintf("postgres://survey:surveypass@%s:%s/surveydb?sslmode=disable", host, port.Port())
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

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
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
}

func seedDatasets(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	runMigrations(t, ctx, dsn)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	for inst, questions := range sampleDatasets() {
		data, err := json.Marshal(questions)
		if err != nil {
			t.Fatalf("marshal %s dataset: %v", inst, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO instrument_datasets (instrument, data) VALUES (?, ?::jsonb)
			 ON CONFLICT (instrument) DO UPDATE SET data=EXCLUDED.data`,
			inst.String(), string(data)); err != nil {
			t.Fatalf("insert %s dataset: %v", inst, err)
		}
	}
}

func sampleDatasets() map[domain.Instrument][]domain.Question {
	return map[domain.Instrument][]domain.Question{
		domain.InstrumentPriorities: {
			{
				Text: "Расставь приоритеты",
				Categories: []domain.Category{
					{ID: "health", Title: "Здоровье"},
					{ID: "career", Title: "Карьера"},
					{ID: "family", Title: "Семья"},
					{ID: "growth", Title: "Развитие"},
				},
			},
		},
		domain.InstrumentThinking: {
			{
				Text: "Вопрос о мышлении",
				Mapping: map[string]string{
					"1": "Синтетический",
					"2": "Идеалистический",
					"3": "Прагматический",
					"4": "Аналитический",
					"5": "Реалистический",
				},
			},
		},
		domain.InstrumentPersonality: {
			{Key: "1", Text: "Вопрос 1", Scale: "E", ScoringAns: "да"},
			{Key: "2", Text: "Вопрос 2", Scale: "E", ScoringAns: "да"},
			{Key: "3", Text: "Вопрос 3", Scale: "N", ScoringAns: "да"},
		},
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
