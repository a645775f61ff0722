package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quizhub/internal/app"
	"quizhub/internal/domain"
	pgloader "quizhub/internal/infra/postgres"
	infraredis "quizhub/internal/infra/redis"
	"quizhub/internal/infra/sqlstore"
)

func TestTakeQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := sqlstore.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.New(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cache := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	attempts := infraredis.NewAttemptStore(redisClient, 5*time.Minute)

	auth := app.NewAuthService(store, "integration-secret", time.Hour)
	quizzes := app.NewQuizService(store, cache, store)
	taking := app.NewTakingService(cache, attempts, store)

	owner, err := auth.Register(ctx, domain.Credentials{Username: "owner", Password: "secret1"})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	player, err := auth.Register(ctx, domain.Credentials{Username: "player", Password: "secret1"})
	if err != nil {
		t.Fatalf("register player: %v", err)
	}
	if _, err := auth.Register(ctx, domain.Credentials{Username: "PLAYER", Password: "secret1"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected duplicate username rejected, got %v", err)
	}

	quiz, err := quizzes.CreateQuiz(ctx, owner.ID, sampleInput())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[0].ID == 0 {
		t.Fatalf("expected persisted questions with ids, got %+v", quiz.Questions)
	}

	first := quiz.Questions[0]
	outcome, err := taking.Answer(ctx, player.ID, quiz.ID, first.ID, []int64{first.Options[1].ID})
	if err != nil {
		t.Fatalf("answer first: %v", err)
	}
	if !outcome.Correct || outcome.Score != 1 || outcome.IsLast {
		t.Fatalf("expected correct first answer, got %+v", outcome)
	}

	progress, err := taking.Current(ctx, player.ID, quiz.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if progress.Index != 1 || progress.Question == nil || progress.Question.ID != quiz.Questions[1].ID {
		t.Fatalf("expected attempt to sit on second question, got %+v", progress)
	}

	second := quiz.Questions[1]
	outcome, err = taking.Answer(ctx, player.ID, quiz.ID, second.ID, []int64{second.Options[0].ID})
	if err != nil {
		t.Fatalf("answer second: %v", err)
	}
	if outcome.Result == nil || outcome.Result.Score != 1 || outcome.Result.Total != 2 || outcome.Result.Percentage != 50 {
		t.Fatalf("expected finished attempt at 50%%, got %+v", outcome)
	}

	results, err := taking.Results(ctx, owner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].UserID != player.ID {
		t.Fatalf("expected one recorded attempt by player, got %+v", results)
	}

	// edit through the service and make sure takers see the new content
	in := domain.InputFromQuiz(quiz)
	in.Questions = in.Questions[:1]
	in.Questions[0].Text = "What is 2 + 2, exactly?"
	updated, changes, err := quizzes.UpdateQuiz(ctx, owner.ID, quiz.ID, in)
	if err != nil {
		t.Fatalf("update quiz: %v", err)
	}
	if len(changes.RemovedQuestions) != 1 || len(updated.Questions) != 1 {
		t.Fatalf("expected one question removed, got %+v", changes)
	}
	cached, err := cache.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("cached quiz: %v", err)
	}
	if len(cached.Questions) != 1 || cached.Questions[0].Text != "What is 2 + 2, exactly?" {
		t.Fatalf("expected cache to reflect the edit, got %+v", cached.Questions)
	}

	if err := quizzes.DeleteQuiz(ctx, owner.ID, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := cache.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone, got %v", err)
	}
}

func sampleInput() domain.QuizInput {
	return domain.QuizInput{
		Name:       "Arithmetic",
		Category:   "math",
		Difficulty: domain.DifficultyEasy,
		TimeLimit:  10,
		IsPublic:   true,
		Questions: []domain.QuestionInput{
			{
				Text: "What is 2 + 2?",
				Options: []domain.OptionInput{
					{Text: "3"},
					{Text: "4", IsCorrect: true},
					{Text: "5"},
				},
			},
			{
				Text: "What is 3 * 3?",
				Options: []domain.OptionInput{
					{Text: "6"},
					{Text: "9", IsCorrect: true},
				},
			},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
