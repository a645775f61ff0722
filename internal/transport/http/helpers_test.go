package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizhub/internal/app"
	"quizhub/internal/domain"
	"quizhub/internal/infra/memory"
	"quizhub/internal/logger"
	"quizhub/internal/metrics"
)

type harness struct {
	server *httptest.Server
	store  *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	cache := memory.NewQuizRepository(store, time.Minute)
	auth := app.NewAuthService(store, "test-secret", time.Hour)
	m := metrics.New()
	taking := app.NewTakingService(cache, memory.NewAttemptStore(time.Hour), store).WithObserver(m)
	quizzes := app.NewQuizService(store, cache, store)
	log := logger.NewWithOutput("quizhub", "error", io.Discard)

	api := NewAPI(quizzes, taking, auth, log)
	ws := NewWSHandler(taking, auth, log)
	server := httptest.NewServer(NewRouter(api, ws, RouterOptions{
		Logger:      log,
		Metrics:     m,
		CORSOrigins: []string{"*"},
	}))
	t.Cleanup(server.Close)
	return &harness{server: server, store: store}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

// signup registers username and returns a bearer token for it.
func (h *harness) signup(t *testing.T, username string) string {
	t.Helper()
	creds := domain.Credentials{Username: username, Password: "secret123"}
	if status, body := h.do(t, http.MethodPost, "/api/auth/register", "", creds); status != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, status, body)
	}
	status, body := h.do(t, http.MethodPost, "/api/auth/login", "", creds)
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, status, body)
	}
	var resp tokenResponse
	decode(t, body, &resp)
	return resp.Token
}

func (h *harness) createQuiz(t *testing.T, token string, in domain.QuizInput) domain.Quiz {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/api/quizzes", token, in)
	if status != http.StatusCreated {
		t.Fatalf("create quiz: %d %s", status, body)
	}
	var quiz domain.Quiz
	decode(t, body, &quiz)
	return quiz
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

// threeQuestionQuiz has one single-answer, one multi-answer and one more single-answer question.
func threeQuestionQuiz(public bool) domain.QuizInput {
	return domain.QuizInput{
		Name:       "General Knowledge",
		Category:   "Trivia",
		Difficulty: domain.DifficultyMedium,
		TimeLimit:  10,
		IsPublic:   public,
		Questions: []domain.QuestionInput{
			{Text: "2 + 2?", Options: []domain.OptionInput{
				{Text: "4", IsCorrect: true}, {Text: "5"}, {Text: "22"},
			}},
			{Text: "Primes?", AllowMultiple: true, Options: []domain.OptionInput{
				{Text: "4"}, {Text: "5", IsCorrect: true}, {Text: "7", IsCorrect: true},
			}},
			{Text: "Largest ocean?", Options: []domain.OptionInput{
				{Text: "Atlantic"}, {Text: "Pacific", IsCorrect: true},
			}},
		},
	}
}
