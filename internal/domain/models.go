package domain

import "time"

// Difficulty grades how hard a quiz is meant to be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Option is a selectable answer to a question.
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId,omitempty"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// Question is a prompt with its ordered options.
type Question struct {
	ID            int64    `json:"id"`
	QuizID        int64    `json:"quizId,omitempty"`
	Text          string   `json:"text"`
	AllowMultiple bool     `json:"allowMultiple"`
	Options       []Option `json:"options"`
}

// CorrectOptionIDs returns the ids of every option flagged correct, in order.
func (q Question) CorrectOptionIDs() []int64 {
	ids := make([]int64, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id int64) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// Quiz is the aggregate root: it exclusively owns its questions, which own their options.
type Quiz struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	TimeLimit   int        `json:"timeLimit"` // minutes, advisory
	IsPublic    bool       `json:"isPublic"`
	OwnerID     int64      `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions,omitempty"`
}

// VisibleTo reports whether userID may read the quiz. Zero means anonymous.
func (q Quiz) VisibleTo(userID int64) bool {
	return q.IsPublic || (userID != 0 && q.OwnerID == userID)
}

// Summary drops the nested questions.
func (q Quiz) Summary() Quiz {
	q.Questions = nil
	return q
}

// QuestionIndex returns the position of questionID, or -1.
func (q Quiz) QuestionIndex(questionID int64) int {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// QuizFilter narrows quiz listings.
type QuizFilter struct {
	ViewerID   int64
	OwnerOnly  bool
	Category   string
	Difficulty Difficulty
}

// QuizAttempt is the immutable record of one finished attempt.
type QuizAttempt struct {
	ID         int64     `json:"id"`
	QuizID     int64     `json:"quizId"`
	UserID     int64     `json:"userId"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
