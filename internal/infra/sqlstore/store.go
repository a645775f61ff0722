package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhub/internal/domain"
)

// Store is the relational backend. It satisfies app.QuizStore, app.UserStore
// and app.AttemptLog over any bun dialect.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CreateQuiz inserts the aggregate in one transaction and fills in the ids.
func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newQuizModel(*quiz)
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		quiz.ID = row.ID
		for i := range quiz.Questions {
			if err := insertQuestion(ctx, tx, quiz.ID, &quiz.Questions[i], i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	row := new(quizModel)
	err := s.db.NewSelect().
		Model(row).
		Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("question.position ASC", "question.id ASC")
		}).
		Relation("Questions.Options", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("opt.position ASC", "opt.id ASC")
		}).
		Where("quiz.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return row.toDomain(), nil
}

// LoadQuiz lets the store back a quiz cache directly.
func (s *Store) LoadQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func (s *Store) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	var rows []*quizModel
	q := s.db.NewSelect().Model(&rows)
	if filter.OwnerOnly {
		q = q.Where("quiz.owner_id = ?", filter.ViewerID)
	} else {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("quiz.is_public = ?", true).WhereOr("quiz.owner_id = ?", filter.ViewerID)
		})
	}
	if filter.Category != "" {
		q = q.Where("LOWER(quiz.category) = LOWER(?)", filter.Category)
	}
	if filter.Difficulty != "" {
		q = q.Where("quiz.difficulty = ?", string(filter.Difficulty))
	}
	if err := q.Order("quiz.created_at DESC", "quiz.id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}

	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ApplyQuizChanges persists a reconciled aggregate. Removed rows are deleted,
// rows with id 0 are inserted and every retained row gets its position
// rewritten, all inside one transaction.
func (s *Store) ApplyQuizChanges(ctx context.Context, quiz *domain.Quiz, changes domain.QuizChanges) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if changes.QuizUpdated {
			res, err := tx.NewUpdate().
				Model(newQuizModel(*quiz)).
				Column("name", "description", "category", "difficulty", "time_limit", "is_public").
				WherePK().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update quiz: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.ErrQuizNotFound
			}
		}

		if len(changes.RemovedQuestions) > 0 {
			if _, err := tx.NewDelete().Model((*optionModel)(nil)).
				Where("question_id IN (?)", bun.In(changes.RemovedQuestions)).Exec(ctx); err != nil {
				return fmt.Errorf("delete options of removed questions: %w", err)
			}
			if _, err := tx.NewDelete().Model((*questionModel)(nil)).
				Where("id IN (?)", bun.In(changes.RemovedQuestions)).Exec(ctx); err != nil {
				return fmt.Errorf("delete questions: %w", err)
			}
		}
		if len(changes.RemovedOptions) > 0 {
			if _, err := tx.NewDelete().Model((*optionModel)(nil)).
				Where("id IN (?)", bun.In(changes.RemovedOptions)).Exec(ctx); err != nil {
				return fmt.Errorf("delete options: %w", err)
			}
		}

		for i := range quiz.Questions {
			question := &quiz.Questions[i]
			if question.ID == 0 {
				if err := insertQuestion(ctx, tx, quiz.ID, question, i); err != nil {
					return err
				}
				continue
			}

			columns := []string{"position"}
			if changes.QuestionUpdated(question.ID) {
				columns = append(columns, "text", "allow_multiple")
			}
			if _, err := tx.NewUpdate().Model(newQuestionModel(*question, i)).
				Column(columns...).WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update question %d: %w", question.ID, err)
			}

			for j := range question.Options {
				opt := &question.Options[j]
				opt.QuestionID = question.ID
				if opt.ID == 0 {
					if err := insertOption(ctx, tx, opt, j); err != nil {
						return err
					}
					continue
				}
				columns := []string{"position"}
				if changes.OptionUpdated(opt.ID) {
					columns = append(columns, "text", "is_correct")
				}
				if _, err := tx.NewUpdate().Model(newOptionModel(*opt, j)).
					Column(columns...).WherePK().Exec(ctx); err != nil {
					return fmt.Errorf("update option %d: %w", opt.ID, err)
				}
			}
		}
		return nil
	})
}

// DeleteQuiz removes the quiz with its questions, options and recorded attempts.
func (s *Store) DeleteQuiz(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*quizModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrQuizNotFound
		}

		questionIDs := tx.NewSelect().Model((*questionModel)(nil)).Column("id").Where("quiz_id = ?", id)
		if _, err := tx.NewDelete().Model((*optionModel)(nil)).
			Where("question_id IN (?)", questionIDs).Exec(ctx); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if _, err := tx.NewDelete().Model((*questionModel)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if _, err := tx.NewDelete().Model((*attemptModel)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		return nil
	})
}

func (s *Store) RecordAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	row := &attemptModel{
		QuizID:     attempt.QuizID,
		UserID:     attempt.UserID,
		Score:      attempt.Score,
		Total:      attempt.Total,
		Percentage: attempt.Percentage,
		CreatedAt:  attempt.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	attempt.ID = row.ID
	return nil
}

// ListAttempts returns attempts newest first. A zero id disables that filter.
func (s *Store) ListAttempts(ctx context.Context, quizID, userID int64) ([]domain.QuizAttempt, error) {
	var rows []*attemptModel
	q := s.db.NewSelect().Model(&rows)
	if quizID != 0 {
		q = q.Where("attempt.quiz_id = ?", quizID)
	}
	if userID != 0 {
		q = q.Where("attempt.user_id = ?", userID)
	}
	if err := q.Order("attempt.created_at DESC", "attempt.id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*userModel)(nil)).
			Where("LOWER(u.username) = LOWER(?)", user.Username).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if exists {
			return domain.ErrUsernameTaken
		}
		row := &userModel{
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			var pgErr pgdriver.Error
			if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
				return domain.ErrUsernameTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		user.ID = row.ID
		return nil
	})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := new(userModel)
	err := s.db.NewSelect().Model(row).Where("LOWER(u.username) = LOWER(?)", username).Limit(1).Scan(ctx)
	return userResult(row, err)
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	row := new(userModel)
	err := s.db.NewSelect().Model(row).Where("u.id = ?", id).Scan(ctx)
	return userResult(row, err)
}

func userResult(row *userModel, err error) (domain.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

func insertQuestion(ctx context.Context, tx bun.Tx, quizID int64, question *domain.Question, position int) error {
	question.QuizID = quizID
	row := newQuestionModel(*question, position)
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	question.ID = row.ID
	for j := range question.Options {
		question.Options[j].QuestionID = question.ID
		if err := insertOption(ctx, tx, &question.Options[j], j); err != nil {
			return err
		}
	}
	return nil
}

func insertOption(ctx context.Context, tx bun.Tx, opt *domain.Option, position int) error {
	row := newOptionModel(*opt, position)
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert option: %w", err)
	}
	opt.ID = row.ID
	return nil
}
