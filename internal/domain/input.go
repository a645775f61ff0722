package domain

// QuizInput is the full nested payload for creating or editing a quiz.
// Children without an id are new; children with an id refer to existing rows.
type QuizInput struct {
	Name        string          `json:"name" validate:"required,quizname"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"max=60"`
	Difficulty  Difficulty      `json:"difficulty" validate:"difficulty"`
	TimeLimit   int             `json:"timeLimit" validate:"min=1,max=100"`
	IsPublic    bool            `json:"isPublic"`
	Questions   []QuestionInput `json:"questions" validate:"dive"`
}

type QuestionInput struct {
	ID            int64         `json:"id,omitempty"`
	Text          string        `json:"text" validate:"required,max=500"`
	AllowMultiple bool          `json:"allowMultiple"`
	Options       []OptionInput `json:"options" validate:"min=1,dive"`
}

type OptionInput struct {
	ID        int64  `json:"id,omitempty"`
	Text      string `json:"text" validate:"required,max=200"`
	IsCorrect bool   `json:"isCorrect"`
}

// Credentials is the register/login payload.
type Credentials struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// InputFromQuiz mirrors a stored quiz as an edit payload, ids included.
func InputFromQuiz(q Quiz) QuizInput {
	in := QuizInput{
		Name:        q.Name,
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		TimeLimit:   q.TimeLimit,
		IsPublic:    q.IsPublic,
		Questions:   make([]QuestionInput, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		qi := QuestionInput{
			ID:            question.ID,
			Text:          question.Text,
			AllowMultiple: question.AllowMultiple,
			Options:       make([]OptionInput, 0, len(question.Options)),
		}
		for _, opt := range question.Options {
			qi.Options = append(qi.Options, OptionInput{ID: opt.ID, Text: opt.Text, IsCorrect: opt.IsCorrect})
		}
		in.Questions = append(in.Questions, qi)
	}
	return in
}
