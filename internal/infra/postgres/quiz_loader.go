package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizhub/internal/domain"
)

// QuizLoader reads the full quiz aggregate straight from Postgres for the
// taking cache. Writes go through sqlstore.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz       domain.Quiz
		difficulty string
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, name, description, category, difficulty, time_limit, is_public, owner_id, created_at
		FROM quizzes WHERE id = $1`, quizID).Scan(
		&quiz.ID, &quiz.Name, &quiz.Description, &quiz.Category, &difficulty,
		&quiz.TimeLimit, &quiz.IsPublic, &quiz.OwnerID, &quiz.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Difficulty = domain.Difficulty(difficulty)
	quiz.CreatedAt = quiz.CreatedAt.UTC()

	quiz.Questions, err = l.loadQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := l.loadOptions(ctx, quizID, quiz.Questions); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (l *QuizLoader) loadQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, quiz_id, text, allow_multiple
		FROM questions WHERE quiz_id = $1
		ORDER BY position, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.AllowMultiple); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Options = make([]domain.Option, 0)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (l *QuizLoader) loadOptions(ctx context.Context, quizID int64, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	byQuestion := make(map[int64]int, len(questions))
	for i, q := range questions {
		byQuestion[q.ID] = i
	}

	rows, err := l.pool.Query(ctx, `
		SELECT o.id, o.question_id, o.text, o.is_correct
		FROM options o JOIN questions q ON q.id = o.question_id
		WHERE q.quiz_id = $1
		ORDER BY o.question_id, o.position, o.id`, quizID)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		idx, ok := byQuestion[o.QuestionID]
		if !ok {
			continue
		}
		questions[idx].Options = append(questions[idx].Options, o)
	}
	return rows.Err()
}
