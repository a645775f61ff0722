package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quizhub/internal/domain"
)

// Store keeps quizzes, users and attempt records in process memory. It backs the
// "memory" database driver and satisfies app.QuizStore, app.UserStore and
// app.AttemptLog.
type Store struct {
	mu       sync.RWMutex
	quizzes  map[int64]domain.Quiz
	users    map[int64]domain.User
	attempts []domain.QuizAttempt

	nextQuiz, nextQuestion, nextOption, nextUser, nextAttempt int64
}

func NewStore() *Store {
	return &Store{
		quizzes: make(map[int64]domain.Quiz),
		users:   make(map[int64]domain.User),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuiz++
	quiz.ID = s.nextQuiz
	s.assignIDsLocked(quiz)
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

// LoadQuiz lets the store act as the loader behind a quiz cache.
func (s *Store) LoadQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func (s *Store) ListQuizzes(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if filter.OwnerOnly && quiz.OwnerID != filter.ViewerID {
			continue
		}
		if !quiz.VisibleTo(filter.ViewerID) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(quiz.Category, filter.Category) {
			continue
		}
		if filter.Difficulty != "" && quiz.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, quiz.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ApplyQuizChanges replaces the stored aggregate with the reconciled one. The
// whole write happens under one lock, so it is atomic for readers.
func (s *Store) ApplyQuizChanges(_ context.Context, quiz *domain.Quiz, _ domain.QuizChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.assignIDsLocked(quiz)
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	kept := s.attempts[:0]
	for _, a := range s.attempts {
		if a.QuizID != id {
			kept = append(kept, a)
		}
	}
	s.attempts = kept
	return nil
}

func (s *Store) RecordAttempt(_ context.Context, attempt *domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAttempt++
	attempt.ID = s.nextAttempt
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *Store) ListAttempts(_ context.Context, quizID, userID int64) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizAttempt, 0)
	for i := len(s.attempts) - 1; i >= 0; i-- {
		a := s.attempts[i]
		if quizID != 0 && a.QuizID != quizID {
			continue
		}
		if userID != 0 && a.UserID != userID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return domain.ErrUsernameTaken
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) assignIDsLocked(quiz *domain.Quiz) {
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == 0 {
			s.nextQuestion++
			q.ID = s.nextQuestion
		}
		q.QuizID = quiz.ID
		for j := range q.Options {
			if q.Options[j].ID == 0 {
				s.nextOption++
				q.Options[j].ID = s.nextOption
			}
			q.Options[j].QuestionID = q.ID
		}
	}
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	out := q
	out.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]domain.Option(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}
