package domain

import "time"

// AttemptKey identifies the single in-progress attempt a user may have on a quiz.
type AttemptKey struct {
	QuizID int64
	UserID int64
}

// AttemptState is the transient progress of one attempt. It is passed explicitly
// through every scoring call and lives in an AttemptStore between requests.
type AttemptState struct {
	QuizID int64 `json:"quizId"`
	UserID int64 `json:"userId"`
	// Index is the question currently awaiting an answer.
	Index int `json:"index"`
	// Reached is the furthest question the user may answer.
	Reached int `json:"reached"`
	// Questions are the question ids, in order, the attempt was started on.
	Questions  []int64         `json:"questions"`
	Score      int             `json:"score"`
	Selections map[int][]int64 `json:"selections"`
	Awarded    map[int]int     `json:"awarded"`
	StartedAt  time.Time       `json:"startedAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (s AttemptState) Key() AttemptKey {
	return AttemptKey{QuizID: s.QuizID, UserID: s.UserID}
}

// AttemptResult is emitted when an attempt reaches the Finished state.
type AttemptResult struct {
	QuizID     int64   `json:"quizId"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AnswerOutcome is the response to one submitted selection.
type AnswerOutcome struct {
	QuestionID int64          `json:"questionId"`
	Index      int            `json:"index"`
	Correct    bool           `json:"correct"`
	Score      int            `json:"score"`
	IsLast     bool           `json:"isLast"`
	NextIndex  int            `json:"nextIndex"`
	Result     *AttemptResult `json:"result,omitempty"`
}

// OptionView is an option as shown while taking a quiz.
type OptionView struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// QuestionView is a question as shown while taking or reviewing a quiz.
type QuestionView struct {
	ID            int64        `json:"id"`
	Index         int          `json:"index"`
	Text          string       `json:"text"`
	AllowMultiple bool         `json:"allowMultiple"`
	Options       []OptionView `json:"options"`
}

// NewQuestionView renders q. Correctness flags are included only when review is set.
func NewQuestionView(q Question, index int, review bool) QuestionView {
	view := QuestionView{
		ID:            q.ID,
		Index:         index,
		Text:          q.Text,
		AllowMultiple: q.AllowMultiple,
		Options:       make([]OptionView, 0, len(q.Options)),
	}
	for _, opt := range q.Options {
		ov := OptionView{ID: opt.ID, Text: opt.Text}
		if review {
			correct := opt.IsCorrect
			ov.IsCorrect = &correct
		}
		view.Options = append(view.Options, ov)
	}
	return view
}

// Progress is returned when resuming an attempt at a given question.
type Progress struct {
	QuizID   int64          `json:"quizId"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Score    int            `json:"score"`
	Question *QuestionView  `json:"question,omitempty"`
	Selected []int64        `json:"selected,omitempty"`
	Result   *AttemptResult `json:"result,omitempty"`
}
