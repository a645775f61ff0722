package app

import "quizhub/internal/domain"

// Reconcile merges an edit payload into the currently persisted quiz aggregate.
//
// Children are matched by id within their parent: matched children are updated in
// place, children without a match are appended as new (id 0), and existing
// children absent from the payload are removed. The returned quiz follows the
// payload's order. Reconcile does not touch storage; callers persist the result
// together with the returned change set atomically.
func Reconcile(existing domain.Quiz, proposed domain.QuizInput) (domain.Quiz, domain.QuizChanges) {
	var changes domain.QuizChanges

	out := existing
	out.Name = proposed.Name
	out.Description = proposed.Description
	out.Category = proposed.Category
	out.Difficulty = proposed.Difficulty
	out.TimeLimit = proposed.TimeLimit
	out.IsPublic = proposed.IsPublic
	changes.QuizUpdated = out.Name != existing.Name ||
		out.Description != existing.Description ||
		out.Category != existing.Category ||
		out.Difficulty != existing.Difficulty ||
		out.TimeLimit != existing.TimeLimit ||
		out.IsPublic != existing.IsPublic

	claimed := make(map[int64]bool, len(existing.Questions))
	out.Questions = make([]domain.Question, 0, len(proposed.Questions))

	for pos, pq := range proposed.Questions {
		idx := matchQuestion(existing.Questions, pq.ID, claimed)
		if idx < 0 {
			out.Questions = append(out.Questions, newQuestion(existing.ID, pq))
			changes.AddedQuestions++
			changes.AddedOptions += len(pq.Options)
			continue
		}

		current := existing.Questions[idx]
		claimed[current.ID] = true

		updated := current
		updated.Text = pq.Text
		updated.AllowMultiple = pq.AllowMultiple
		updated.Options = reconcileOptions(current, pq.Options, &changes)

		if updated.Text != current.Text || updated.AllowMultiple != current.AllowMultiple || pos != idx {
			changes.UpdatedQuestions = append(changes.UpdatedQuestions, current.ID)
		}
		out.Questions = append(out.Questions, updated)
	}

	for _, q := range existing.Questions {
		if !claimed[q.ID] {
			changes.RemovedQuestions = append(changes.RemovedQuestions, q.ID)
		}
	}
	return out, changes
}

func reconcileOptions(current domain.Question, proposed []domain.OptionInput, changes *domain.QuizChanges) []domain.Option {
	claimed := make(map[int64]bool, len(current.Options))
	out := make([]domain.Option, 0, len(proposed))

	for pos, po := range proposed {
		idx := matchOption(current.Options, po.ID, claimed)
		if idx < 0 {
			out = append(out, domain.Option{QuestionID: current.ID, Text: po.Text, IsCorrect: po.IsCorrect})
			changes.AddedOptions++
			continue
		}

		existing := current.Options[idx]
		claimed[existing.ID] = true

		updated := existing
		updated.Text = po.Text
		updated.IsCorrect = po.IsCorrect
		if updated.Text != existing.Text || updated.IsCorrect != existing.IsCorrect || pos != idx {
			changes.UpdatedOptions = append(changes.UpdatedOptions, existing.ID)
		}
		out = append(out, updated)
	}

	for _, opt := range current.Options {
		if !claimed[opt.ID] {
			changes.RemovedOptions = append(changes.RemovedOptions, opt.ID)
		}
	}
	return out
}

// matchQuestion returns the index of the first unclaimed question with id, or -1.
func matchQuestion(questions []domain.Question, id int64, claimed map[int64]bool) int {
	if id == 0 || claimed[id] {
		return -1
	}
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}

func matchOption(options []domain.Option, id int64, claimed map[int64]bool) int {
	if id == 0 || claimed[id] {
		return -1
	}
	for i := range options {
		if options[i].ID == id {
			return i
		}
	}
	return -1
}

func newQuestion(quizID int64, in domain.QuestionInput) domain.Question {
	q := domain.Question{
		QuizID:        quizID,
		Text:          in.Text,
		AllowMultiple: in.AllowMultiple,
		Options:       make([]domain.Option, 0, len(in.Options)),
	}
	for _, opt := range in.Options {
		q.Options = append(q.Options, domain.Option{Text: opt.Text, IsCorrect: opt.IsCorrect})
	}
	return q
}

// NewQuiz builds an unsaved aggregate from a create payload.
func NewQuiz(ownerID int64, in domain.QuizInput) domain.Quiz {
	quiz := domain.Quiz{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		TimeLimit:   in.TimeLimit,
		IsPublic:    in.IsPublic,
		OwnerID:     ownerID,
		Questions:   make([]domain.Question, 0, len(in.Questions)),
	}
	for _, q := range in.Questions {
		quiz.Questions = append(quiz.Questions, newQuestion(0, q))
	}
	return quiz
}
