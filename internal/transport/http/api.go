package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizhub/internal/app"
	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

// API exposes the quiz, taking and auth use cases as REST/JSON.
type API struct {
	quizzes *app.QuizService
	taking  *app.TakingService
	auth    *app.AuthService
	log     *logger.Logger
}

func NewAPI(quizzes *app.QuizService, taking *app.TakingService, auth *app.AuthService, log *logger.Logger) *API {
	return &API{quizzes: quizzes, taking: taking, auth: auth, log: log}
}

// Routes mounts the API under the caller's router.
func (a *API) Routes(r chi.Router) {
	r.Use(Authenticate(a.auth))

	r.Post("/auth/register", a.register)
	r.Post("/auth/login", a.login)
	r.Get("/auth/me", a.me)

	r.Get("/quizzes", a.listQuizzes)
	r.Post("/quizzes", a.createQuiz)
	r.Route("/quizzes/{id}", func(r chi.Router) {
		r.Get("/", a.getQuiz)
		r.Put("/", a.updateQuiz)
		r.Delete("/", a.deleteQuiz)
		r.Get("/edit", a.editPayload)
		r.Get("/questions", a.questions)
		r.Get("/progress", a.progress)
		r.Post("/questions/{qid}/answer", a.answer)
		r.Post("/attempts", a.finish)
		r.Get("/attempts", a.quizResults)
	})
	r.Get("/attempts", a.myResults)
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type updateResponse struct {
	Quiz    domain.Quiz        `json:"quiz"`
	Changes domain.QuizChanges `json:"changes"`
}

type answerRequest struct {
	OptionIDs []int64 `json:"optionIds"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in domain.Credentials
	if !a.decode(w, r, &in) {
		return
	}
	user, err := a.auth.Register(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in domain.Credentials
	if !a.decode(w, r, &in) {
		return
	}
	token, user, err := a.auth.Login(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.Me(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mine, _ := strconv.ParseBool(q.Get("mine"))
	filter := domain.QuizFilter{
		ViewerID:   UserID(r.Context()),
		OwnerOnly:  mine,
		Category:   q.Get("category"),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
	}
	quizzes, err := a.quizzes.ListQuizzes(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var in domain.QuizInput
	if !a.decode(w, r, &in) {
		return
	}
	quiz, err := a.quizzes.CreateQuiz(r.Context(), UserID(r.Context()), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) getQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	quiz, err := a.quizzes.GetQuiz(r.Context(), UserID(r.Context()), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) updateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.QuizInput
	if !a.decode(w, r, &in) {
		return
	}
	quiz, changes, err := a.quizzes.UpdateQuiz(r.Context(), UserID(r.Context()), quizID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{Quiz: quiz, Changes: changes})
}

func (a *API) editPayload(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	in, err := a.quizzes.EditPayload(r.Context(), UserID(r.Context()), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (a *API) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.quizzes.DeleteQuiz(r.Context(), UserID(r.Context()), quizID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) questions(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	review := r.URL.Query().Get("view") == "review"
	views, err := a.quizzes.Questions(r.Context(), UserID(r.Context()), quizID, review)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) progress(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var (
		progress domain.Progress
		err      error
	)
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, convErr := strconv.Atoi(raw)
		if convErr != nil {
			a.fail(w, r, domain.NewValidationError("index", "must be an integer"))
			return
		}
		progress, err = a.taking.Resume(r.Context(), UserID(r.Context()), quizID, index)
	} else {
		progress, err = a.taking.Current(r.Context(), UserID(r.Context()), quizID)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) answer(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	questionID, ok := a.pathID(w, r, "qid")
	if !ok {
		return
	}
	var req answerRequest
	if !a.decode(w, r, &req) {
		return
	}
	outcome, err := a.taking.Answer(r.Context(), UserID(r.Context()), quizID, questionID, req.OptionIDs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *API) finish(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := a.taking.Finish(r.Context(), UserID(r.Context()), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) quizResults(w http.ResponseWriter, r *http.Request) {
	quizID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	attempts, err := a.taking.Results(r.Context(), UserID(r.Context()), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (a *API) myResults(w http.ResponseWriter, r *http.Request) {
	attempts, err := a.taking.MyResults(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		a.fail(w, r, domain.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// fail maps err to a status; unclassified errors are logged and masked.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.WithRequestID(RequestID(r.Context())).
			WithField("path", r.URL.Path).
			WithError(err).
			Error("request failed")
	}
	writeJSON(w, status, toResponse(err, status))
}
