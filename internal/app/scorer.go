package app

import (
	"math"
	"time"

	"quizhub/internal/domain"
)

// Scorer steps one attempt through a fully loaded quiz. It holds no per-attempt
// data itself; every call takes the attempt state explicitly.
type Scorer struct {
	quiz domain.Quiz
}

func NewScorer(quiz domain.Quiz) *Scorer {
	return &Scorer{quiz: quiz}
}

// Total is the number of questions in the quiz.
func (s *Scorer) Total() int {
	return len(s.quiz.Questions)
}

// Start returns a fresh attempt awaiting the first question.
func (s *Scorer) Start(userID int64, now time.Time) *domain.AttemptState {
	return &domain.AttemptState{
		QuizID:     s.quiz.ID,
		UserID:     userID,
		Questions:  s.questionIDs(),
		Selections: make(map[int][]int64),
		Awarded:    make(map[int]int),
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Matches reports whether st was started on the quiz's current question list.
// Indexes in a state that does not match point at the wrong questions.
func (s *Scorer) Matches(st *domain.AttemptState) bool {
	if len(st.Questions) != len(s.quiz.Questions) {
		return false
	}
	for i, q := range s.quiz.Questions {
		if st.Questions[i] != q.ID {
			return false
		}
	}
	return true
}

// InRange reports whether index addresses a question.
func (s *Scorer) InRange(index int) bool {
	return index >= 0 && index < len(s.quiz.Questions)
}

// Submit scores selection against the question at index and advances the attempt.
// A rejected submission leaves st untouched. Submitting the last question yields
// a result; the caller is expected to discard st afterwards.
func (s *Scorer) Submit(st *domain.AttemptState, index int, selection []int64, now time.Time) (domain.AnswerOutcome, error) {
	if !s.InRange(index) {
		return domain.AnswerOutcome{}, domain.ErrQuestionNotFound
	}
	if index > st.Reached {
		return domain.AnswerOutcome{}, domain.ErrQuestionNotReached
	}
	selected := uniqueIDs(selection)
	if len(selected) == 0 {
		return domain.AnswerOutcome{}, domain.ErrEmptySelection
	}

	question := s.quiz.Questions[index]
	for _, id := range selected {
		if !question.HasOption(id) {
			return domain.AnswerOutcome{}, domain.ErrOptionNotFound
		}
	}

	correct := IsCorrect(question, selected)
	award := 0
	if correct {
		award = 1
	}
	ensureMaps(st)
	st.Score += award - st.Awarded[index]
	st.Awarded[index] = award
	st.Selections[index] = selected
	st.UpdatedAt = now

	next := index + 1
	if next > st.Reached {
		st.Reached = next
	}
	st.Index = next

	outcome := domain.AnswerOutcome{
		QuestionID: question.ID,
		Index:      index,
		Correct:    correct,
		Score:      st.Score,
		IsLast:     next >= s.Total(),
		NextIndex:  next,
	}
	if outcome.IsLast {
		result := s.Finish(st)
		outcome.Result = &result
	}
	return outcome, nil
}

// Navigate moves the cursor to index without touching the score. It returns
// false when index is out of range, in which case the attempt should be
// finished with what it has accumulated.
func (s *Scorer) Navigate(st *domain.AttemptState, index int, now time.Time) bool {
	if !s.InRange(index) {
		return false
	}
	if index > st.Reached {
		index = st.Reached
	}
	st.Index = index
	st.UpdatedAt = now
	return true
}

// Selected returns the selection recorded for index, if any.
func (s *Scorer) Selected(st *domain.AttemptState, index int) []int64 {
	return st.Selections[index]
}

// Question returns the taking view of the question at index.
func (s *Scorer) Question(index int) (domain.QuestionView, bool) {
	if !s.InRange(index) {
		return domain.QuestionView{}, false
	}
	return domain.NewQuestionView(s.quiz.Questions[index], index, false), true
}

// Finish computes the final result. Only awards for questions the quiz still
// has count, so the score never exceeds the total.
func (s *Scorer) Finish(st *domain.AttemptState) domain.AttemptResult {
	score := 0
	for index, award := range st.Awarded {
		if s.InRange(index) {
			score += award
		}
	}
	st.Score = score
	return domain.AttemptResult{
		QuizID:     s.quiz.ID,
		Score:      score,
		Total:      s.Total(),
		Percentage: Percentage(score, s.Total()),
	}
}

func (s *Scorer) questionIDs() []int64 {
	ids := make([]int64, len(s.quiz.Questions))
	for i, q := range s.quiz.Questions {
		ids[i] = q.ID
	}
	return ids
}

// IsCorrect scores a deduplicated selection. Single-answer questions accept only
// the first option flagged correct; multi-answer questions require the selection
// to equal the set of correct options exactly.
func IsCorrect(q domain.Question, selected []int64) bool {
	correct := q.CorrectOptionIDs()
	if len(correct) == 0 {
		return false
	}
	if !q.AllowMultiple {
		return len(selected) == 1 && selected[0] == correct[0]
	}
	return sameIDSet(selected, correct)
}

// Percentage returns score/total as a percentage rounded to one decimal.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*1000) / 10
}

func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ensureMaps(st *domain.AttemptState) {
	if st.Selections == nil {
		st.Selections = make(map[int][]int64)
	}
	if st.Awarded == nil {
		st.Awarded = make(map[int]int)
	}
}
