package domain

// QuizChanges describes what a reconcile pass changed on a quiz aggregate.
// New questions and options carry id 0 in the reconciled quiz until persisted.
type QuizChanges struct {
	QuizUpdated      bool    `json:"quizUpdated"`
	AddedQuestions   int     `json:"addedQuestions"`
	UpdatedQuestions []int64 `json:"updatedQuestions,omitempty"`
	RemovedQuestions []int64 `json:"removedQuestions,omitempty"`
	AddedOptions     int     `json:"addedOptions"`
	UpdatedOptions   []int64 `json:"updatedOptions,omitempty"`
	// RemovedOptions lists options dropped from retained questions. Options of
	// removed questions go with their question.
	RemovedOptions []int64 `json:"removedOptions,omitempty"`
}

// Empty reports whether applying the changes would be a no-op.
func (c QuizChanges) Empty() bool {
	return !c.QuizUpdated &&
		c.AddedQuestions == 0 && len(c.UpdatedQuestions) == 0 && len(c.RemovedQuestions) == 0 &&
		c.AddedOptions == 0 && len(c.UpdatedOptions) == 0 && len(c.RemovedOptions) == 0
}

// QuestionUpdated reports whether the existing question id must be rewritten.
func (c QuizChanges) QuestionUpdated(id int64) bool {
	return containsID(c.UpdatedQuestions, id)
}

// OptionUpdated reports whether the existing option id must be rewritten.
func (c QuizChanges) OptionUpdated(id int64) bool {
	return containsID(c.UpdatedOptions, id)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
