package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizhub/internal/domain"
)

// Observer is notified of scoring events (metrics hook).
type Observer interface {
	AnswerScored(correct bool)
	AttemptFinished(result domain.AttemptResult)
}

type nopObserver struct{}

func (nopObserver) AnswerScored(bool)                    {}
func (nopObserver) AttemptFinished(domain.AttemptResult) {}

// TakingService drives quiz attempts: one explicit state per (user, quiz).
type TakingService struct {
	quizzes  QuizRepository
	states   AttemptStore
	log      AttemptLog
	observer Observer
	now      func() time.Time
}

func NewTakingService(quizzes QuizRepository, states AttemptStore, log AttemptLog) *TakingService {
	return &TakingService{
		quizzes:  quizzes,
		states:   states,
		log:      log,
		observer: nopObserver{},
		now:      time.Now,
	}
}

// WithObserver installs a scoring observer.
func (s *TakingService) WithObserver(o Observer) *TakingService {
	if o != nil {
		s.observer = o
	}
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *TakingService) WithClock(now func() time.Time) *TakingService {
	s.now = now
	return s
}

// Answer records the user's selection for a question and scores it.
func (s *TakingService) Answer(ctx context.Context, userID, quizID, questionID int64, optionIDs []int64) (domain.AnswerOutcome, error) {
	quiz, err := s.takeableQuiz(ctx, userID, quizID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	index := quiz.QuestionIndex(questionID)
	if index < 0 {
		return domain.AnswerOutcome{}, domain.ErrQuestionNotFound
	}

	scorer := NewScorer(quiz)
	state, err := s.loadOrStart(ctx, scorer, userID, quizID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}

	outcome, err := scorer.Submit(&state, index, optionIDs, s.now())
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	s.observer.AnswerScored(outcome.Correct)

	if outcome.Result != nil {
		if err := s.complete(ctx, state.Key(), *outcome.Result); err != nil {
			return domain.AnswerOutcome{}, err
		}
		return outcome, nil
	}
	if err := s.states.Save(ctx, state); err != nil {
		return domain.AnswerOutcome{}, fmt.Errorf("save attempt state: %w", err)
	}
	return outcome, nil
}

// Current returns the question the attempt is waiting on, starting a new
// attempt if none is in progress.
func (s *TakingService) Current(ctx context.Context, userID, quizID int64) (domain.Progress, error) {
	return s.position(ctx, userID, quizID, func(st *domain.AttemptState) int { return st.Index })
}

// Resume positions the attempt at index and returns that question with the
// selection recorded for it. An index outside the quiz finishes the attempt.
func (s *TakingService) Resume(ctx context.Context, userID, quizID int64, index int) (domain.Progress, error) {
	return s.position(ctx, userID, quizID, func(*domain.AttemptState) int { return index })
}

func (s *TakingService) position(ctx context.Context, userID, quizID int64, target func(*domain.AttemptState) int) (domain.Progress, error) {
	quiz, err := s.takeableQuiz(ctx, userID, quizID)
	if err != nil {
		return domain.Progress{}, err
	}
	scorer := NewScorer(quiz)
	state, err := s.loadOrStart(ctx, scorer, userID, quizID)
	if err != nil {
		return domain.Progress{}, err
	}

	index := target(&state)
	if !scorer.Navigate(&state, index, s.now()) {
		result := scorer.Finish(&state)
		if err := s.complete(ctx, state.Key(), result); err != nil {
			return domain.Progress{}, err
		}
		return domain.Progress{
			QuizID: quizID,
			Index:  index,
			Total:  scorer.Total(),
			Score:  result.Score,
			Result: &result,
		}, nil
	}

	if err := s.states.Save(ctx, state); err != nil {
		return domain.Progress{}, fmt.Errorf("save attempt state: %w", err)
	}
	view, _ := scorer.Question(state.Index)
	return domain.Progress{
		QuizID:   quizID,
		Index:    state.Index,
		Total:    scorer.Total(),
		Score:    state.Score,
		Question: &view,
		Selected: scorer.Selected(&state, state.Index),
	}, nil
}

// Finish ends the in-progress attempt with its accumulated score and records it.
func (s *TakingService) Finish(ctx context.Context, userID, quizID int64) (domain.AttemptResult, error) {
	quiz, err := s.takeableQuiz(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	key := domain.AttemptKey{QuizID: quizID, UserID: userID}
	state, err := s.states.Get(ctx, key)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	scorer := NewScorer(quiz)
	if !scorer.Matches(&state) {
		// the quiz was edited under the attempt; there is nothing valid to record
		if err := s.states.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrAttemptNotFound) {
			return domain.AttemptResult{}, fmt.Errorf("clear attempt state: %w", err)
		}
		return domain.AttemptResult{}, domain.ErrAttemptNotFound
	}
	result := scorer.Finish(&state)
	if err := s.complete(ctx, key, result); err != nil {
		return domain.AttemptResult{}, err
	}
	return result, nil
}

// Results lists recorded attempts on a quiz. Owners see every attempt, other
// users see their own.
func (s *TakingService) Results(ctx context.Context, userID, quizID int64) ([]domain.QuizAttempt, error) {
	quiz, err := s.takeableQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	filterUser := userID
	if quiz.OwnerID == userID {
		filterUser = 0
	}
	attempts, err := s.log.ListAttempts(ctx, quizID, filterUser)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// MyResults lists the user's attempts across all quizzes.
func (s *TakingService) MyResults(ctx context.Context, userID int64) ([]domain.QuizAttempt, error) {
	if userID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	attempts, err := s.log.ListAttempts(ctx, 0, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (s *TakingService) takeableQuiz(ctx context.Context, userID, quizID int64) (domain.Quiz, error) {
	if userID == 0 {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.VisibleTo(userID) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

// loadOrStart returns the attempt in progress, or a fresh one when there is none
// or the quiz's questions changed since it started.
func (s *TakingService) loadOrStart(ctx context.Context, scorer *Scorer, userID, quizID int64) (domain.AttemptState, error) {
	state, err := s.states.Get(ctx, domain.AttemptKey{QuizID: quizID, UserID: userID})
	if err == nil && scorer.Matches(&state) {
		return state, nil
	}
	if err == nil {
		return *scorer.Start(userID, s.now().UTC()), nil
	}
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.AttemptState{}, fmt.Errorf("load attempt state: %w", err)
	}
	return *scorer.Start(userID, s.now().UTC()), nil
}

// complete records the result and clears the transient state so a new attempt
// starts from scratch.
func (s *TakingService) complete(ctx context.Context, key domain.AttemptKey, result domain.AttemptResult) error {
	attempt := domain.QuizAttempt{
		QuizID:     key.QuizID,
		UserID:     key.UserID,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.log.RecordAttempt(ctx, &attempt); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if err := s.states.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrAttemptNotFound) {
		return fmt.Errorf("clear attempt state: %w", err)
	}
	s.observer.AttemptFinished(result)
	return nil
}
