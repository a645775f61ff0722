package app

import (
	"context"
	"fmt"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

// QuizService contains the quiz authoring use cases.
type QuizService struct {
	store    QuizStore
	cache    QuizRepository
	attempts AttemptLog
	validate *Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewQuizService(store QuizStore, cache QuizRepository, attempts AttemptLog) *QuizService {
	return &QuizService{
		store:    store,
		cache:    cache,
		attempts: attempts,
		validate: NewValidator(),
		now:      time.Now,
	}
}

// WithLogger installs the logger used for failures that do not fail the request.
func (s *QuizService) WithLogger(log *logger.Logger) *QuizService {
	s.log = log
	return s
}

// CreateQuiz validates the payload and stores a new quiz owned by ownerID.
func (s *QuizService) CreateQuiz(ctx context.Context, ownerID int64, in domain.QuizInput) (domain.Quiz, error) {
	if ownerID == 0 {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	if err := s.validate.Quiz(in); err != nil {
		return domain.Quiz{}, err
	}

	quiz := NewQuiz(ownerID, in)
	quiz.CreatedAt = s.now().UTC()
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz returns the quiz summary if viewerID may see it.
func (s *QuizService) GetQuiz(ctx context.Context, viewerID, quizID int64) (domain.Quiz, error) {
	quiz, err := s.visibleQuiz(ctx, viewerID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz.Summary(), nil
}

// ListQuizzes returns public quizzes plus the viewer's own, as summaries.
func (s *QuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	if filter.OwnerOnly && filter.ViewerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	quizzes, err := s.store.ListQuizzes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// UpdateQuiz reconciles the nested payload against the stored aggregate and
// persists the difference atomically.
func (s *QuizService) UpdateQuiz(ctx context.Context, viewerID, quizID int64, in domain.QuizInput) (domain.Quiz, domain.QuizChanges, error) {
	existing, err := s.ownedQuiz(ctx, viewerID, quizID)
	if err != nil {
		return domain.Quiz{}, domain.QuizChanges{}, err
	}
	if err := s.validate.Quiz(in); err != nil {
		return domain.Quiz{}, domain.QuizChanges{}, err
	}

	updated, changes := Reconcile(existing, in)
	if changes.Empty() {
		return updated, changes, nil
	}
	if err := s.store.ApplyQuizChanges(ctx, &updated, changes); err != nil {
		return domain.Quiz{}, domain.QuizChanges{}, fmt.Errorf("apply quiz changes: %w", err)
	}
	s.invalidate(ctx, quizID)
	return updated, changes, nil
}

// EditPayload returns an owned quiz in the nested shape UpdateQuiz accepts,
// ids and correct flags included.
func (s *QuizService) EditPayload(ctx context.Context, viewerID, quizID int64) (domain.QuizInput, error) {
	quiz, err := s.ownedQuiz(ctx, viewerID, quizID)
	if err != nil {
		return domain.QuizInput{}, err
	}
	return domain.InputFromQuiz(quiz), nil
}

// DeleteQuiz removes an owned quiz and everything under it.
func (s *QuizService) DeleteQuiz(ctx context.Context, viewerID, quizID int64) error {
	if _, err := s.ownedQuiz(ctx, viewerID, quizID); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	s.invalidate(ctx, quizID)
	return nil
}

// Questions lists the quiz's questions. The review view reveals correct options
// and is limited to the owner and to users who finished an attempt.
func (s *QuizService) Questions(ctx context.Context, viewerID, quizID int64, review bool) ([]domain.QuestionView, error) {
	quiz, err := s.visibleQuiz(ctx, viewerID, quizID)
	if err != nil {
		return nil, err
	}
	if review {
		if err := s.canReview(ctx, viewerID, quiz); err != nil {
			return nil, err
		}
	}
	views := make([]domain.QuestionView, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		views = append(views, domain.NewQuestionView(q, i, review))
	}
	return views, nil
}

func (s *QuizService) canReview(ctx context.Context, viewerID int64, quiz domain.Quiz) error {
	if viewerID == 0 {
		return domain.ErrUnauthenticated
	}
	if quiz.OwnerID == viewerID {
		return nil
	}
	attempts, err := s.attempts.ListAttempts(ctx, quiz.ID, viewerID)
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return domain.ErrForbidden
	}
	return nil
}

func (s *QuizService) visibleQuiz(ctx context.Context, viewerID, quizID int64) (domain.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.VisibleTo(viewerID) {
		return quiz, nil
	}
	if viewerID == 0 {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	return domain.Quiz{}, domain.ErrForbidden
}

func (s *QuizService) ownedQuiz(ctx context.Context, viewerID, quizID int64) (domain.Quiz, error) {
	if viewerID == 0 {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != viewerID {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

// invalidate drops the cached taking copy. The write has already committed, so
// a failure is logged and the stale entry lives until its TTL.
func (s *QuizService) invalidate(ctx context.Context, quizID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil && s.log != nil {
		s.log.Entry().WithError(err).WithField("quiz_id", quizID).Error("invalidate quiz cache")
	}
}
