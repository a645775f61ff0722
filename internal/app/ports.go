package app

import (
	"context"

	"quizhub/internal/domain"
)

// QuizStore is the authoritative store for quiz aggregates.
type QuizStore interface {
	// CreateQuiz persists a new aggregate and assigns ids in place.
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	// GetQuiz loads the full aggregate: questions and options in order.
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
	// ApplyQuizChanges persists a reconciled aggregate in one transaction and
	// assigns ids to new children in place.
	ApplyQuizChanges(ctx context.Context, quiz *domain.Quiz, changes domain.QuizChanges) error
	// DeleteQuiz removes the quiz with its questions, options and attempts.
	DeleteQuiz(ctx context.Context, id int64) error
}

// QuizRepository loads quiz content for taking (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID int64) error
}

// AttemptStore holds in-progress attempt state keyed by (quiz, user).
type AttemptStore interface {
	Get(ctx context.Context, key domain.AttemptKey) (domain.AttemptState, error)
	Save(ctx context.Context, state domain.AttemptState) error
	Delete(ctx context.Context, key domain.AttemptKey) error
}

// AttemptLog records finished attempts.
type AttemptLog interface {
	RecordAttempt(ctx context.Context, attempt *domain.QuizAttempt) error
	ListAttempts(ctx context.Context, quizID, userID int64) ([]domain.QuizAttempt, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
}
