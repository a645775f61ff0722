package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"quizhub/internal/domain"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:quiz"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name"`
	Description string    `bun:"description"`
	Category    string    `bun:"category"`
	Difficulty  string    `bun:"difficulty"`
	TimeLimit   int       `bun:"time_limit"`
	IsPublic    bool      `bun:"is_public"`
	OwnerID     int64     `bun:"owner_id"`
	CreatedAt   time.Time `bun:"created_at"`

	Questions []*questionModel `bun:"rel:has-many,join:id=quiz_id"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:question"`

	ID            int64  `bun:"id,pk,autoincrement"`
	QuizID        int64  `bun:"quiz_id"`
	Position      int    `bun:"position"`
	Text          string `bun:"text"`
	AllowMultiple bool   `bun:"allow_multiple"`

	Options []*optionModel `bun:"rel:has-many,join:id=question_id"`
}

type optionModel struct {
	bun.BaseModel `bun:"table:options,alias:opt"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id"`
	Position   int    `bun:"position"`
	Text       string `bun:"text"`
	IsCorrect  bool   `bun:"is_correct"`
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username"`
	PasswordHash string    `bun:"password_hash"`
	CreatedAt    time.Time `bun:"created_at"`
}

type attemptModel struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:attempt"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuizID     int64     `bun:"quiz_id"`
	UserID     int64     `bun:"user_id"`
	Score      int       `bun:"score"`
	Total      int       `bun:"total"`
	Percentage float64   `bun:"percentage"`
	CreatedAt  time.Time `bun:"created_at"`
}

func newQuizModel(q domain.Quiz) *quizModel {
	return &quizModel{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  string(q.Difficulty),
		TimeLimit:   q.TimeLimit,
		IsPublic:    q.IsPublic,
		OwnerID:     q.OwnerID,
		CreatedAt:   q.CreatedAt,
	}
}

func (m *quizModel) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Difficulty:  domain.Difficulty(m.Difficulty),
		TimeLimit:   m.TimeLimit,
		IsPublic:    m.IsPublic,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if m.Questions == nil {
		return quiz
	}
	quiz.Questions = make([]domain.Question, 0, len(m.Questions))
	for _, qm := range m.Questions {
		question := domain.Question{
			ID:            qm.ID,
			QuizID:        qm.QuizID,
			Text:          qm.Text,
			AllowMultiple: qm.AllowMultiple,
			Options:       make([]domain.Option, 0, len(qm.Options)),
		}
		for _, om := range qm.Options {
			question.Options = append(question.Options, domain.Option{
				ID:         om.ID,
				QuestionID: om.QuestionID,
				Text:       om.Text,
				IsCorrect:  om.IsCorrect,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func newQuestionModel(q domain.Question, position int) *questionModel {
	return &questionModel{
		ID:            q.ID,
		QuizID:        q.QuizID,
		Position:      position,
		Text:          q.Text,
		AllowMultiple: q.AllowMultiple,
	}
}

func newOptionModel(o domain.Option, position int) *optionModel {
	return &optionModel{
		ID:         o.ID,
		QuestionID: o.QuestionID,
		Position:   position,
		Text:       o.Text,
		IsCorrect:  o.IsCorrect,
	}
}

func (m *userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (m *attemptModel) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:         m.ID,
		QuizID:     m.QuizID,
		UserID:     m.UserID,
		Score:      m.Score,
		Total:      m.Total,
		Percentage: m.Percentage,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
