package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhub/internal/app"
	"quizhub/internal/domain"
)

func storedQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         1,
		Name:       "Science",
		Difficulty: domain.DifficultyEasy,
		TimeLimit:  10,
		IsPublic:   true,
		OwnerID:    7,
		Questions: []domain.Question{
			{ID: 1, QuizID: 1, Text: "Water formula?", Options: []domain.Option{
				{ID: 1, QuestionID: 1, Text: "H2O", IsCorrect: true},
				{ID: 2, QuestionID: 1, Text: "CO2"},
			}},
			{ID: 2, QuizID: 1, Text: "Closest star?", Options: []domain.Option{
				{ID: 3, QuestionID: 2, Text: "Sun", IsCorrect: true},
				{ID: 4, QuestionID: 2, Text: "Sirius"},
			}},
		},
	}
}

func TestReconcileUpdatesRemovesAndAppendsOptions(t *testing.T) {
	existing := domain.Quiz{ID: 1, Name: "Q", TimeLimit: 1, Questions: []domain.Question{
		{ID: 5, QuizID: 1, Text: "Pick", Options: []domain.Option{
			{ID: 10, QuestionID: 5, Text: "a", IsCorrect: true},
			{ID: 11, QuestionID: 5, Text: "b"},
		}},
	}}
	in := domain.InputFromQuiz(existing)
	in.Questions[0].Text = "Pick one"
	in.Questions[0].Options = []domain.OptionInput{
		{ID: 10, Text: "a (edited)", IsCorrect: true},
		{Text: "c"},
	}

	updated, changes := app.Reconcile(existing, in)

	require.Len(t, updated.Questions, 1)
	assert.Equal(t, int64(5), updated.Questions[0].ID)
	assert.Equal(t, "Pick one", updated.Questions[0].Text)
	opts := updated.Questions[0].Options
	require.Len(t, opts, 2)
	assert.Equal(t, int64(10), opts[0].ID)
	assert.Equal(t, "a (edited)", opts[0].Text)
	assert.Zero(t, opts[1].ID)
	assert.Equal(t, "c", opts[1].Text)
	assert.Equal(t, int64(5), opts[1].QuestionID)

	assert.Equal(t, []int64{10}, changes.UpdatedOptions)
	assert.Equal(t, []int64{11}, changes.RemovedOptions)
	assert.Equal(t, 1, changes.AddedOptions)
	assert.False(t, changes.QuizUpdated)
	assert.Equal(t, []int64{5}, changes.UpdatedQuestions)
	assert.Zero(t, changes.AddedQuestions)
	assert.Empty(t, changes.RemovedQuestions)
}

func TestReconcileAddsAndRemovesQuestions(t *testing.T) {
	existing := storedQuiz()
	in := domain.InputFromQuiz(existing)
	second := in.Questions[1]
	second.Text = "Closest star to Earth?"
	in.Questions = []domain.QuestionInput{
		second,
		{Text: "Boiling point of water (C)?", Options: []domain.OptionInput{{Text: "100", IsCorrect: true}, {Text: "90"}}},
	}

	updated, changes := app.Reconcile(existing, in)

	require.Len(t, updated.Questions, 2)
	assert.Equal(t, int64(2), updated.Questions[0].ID)
	assert.Equal(t, "Closest star to Earth?", updated.Questions[0].Text)
	assert.Zero(t, updated.Questions[1].ID)
	assert.Len(t, updated.Questions[1].Options, 2)

	assert.Equal(t, []int64{1}, changes.RemovedQuestions)
	assert.Equal(t, []int64{2}, changes.UpdatedQuestions)
	assert.Equal(t, 1, changes.AddedQuestions)
	assert.Equal(t, 2, changes.AddedOptions)
	// options of a removed question go with it
	assert.Empty(t, changes.RemovedOptions)
}

func TestReconcileIsIdempotent(t *testing.T) {
	existing := storedQuiz()
	updated, changes := app.Reconcile(existing, domain.InputFromQuiz(existing))

	assert.True(t, changes.Empty())
	assert.Equal(t, existing, updated)
}

func TestReconcileMatchingRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *domain.QuizInput)
		check  func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges)
	}{
		{
			name:   "quiz fields only",
			mutate: func(in *domain.QuizInput) { in.IsPublic = false },
			check: func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges) {
				assert.True(t, changes.QuizUpdated)
				assert.False(t, updated.IsPublic)
				assert.Empty(t, changes.UpdatedQuestions)
			},
		},
		{
			name: "reorder counts as update",
			mutate: func(in *domain.QuizInput) {
				in.Questions[0], in.Questions[1] = in.Questions[1], in.Questions[0]
			},
			check: func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges) {
				assert.ElementsMatch(t, []int64{1, 2}, changes.UpdatedQuestions)
				assert.Equal(t, int64(2), updated.Questions[0].ID)
			},
		},
		{
			name: "unknown id is new",
			mutate: func(in *domain.QuizInput) {
				in.Questions[1].ID = 99
			},
			check: func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges) {
				assert.Equal(t, 1, changes.AddedQuestions)
				assert.Equal(t, []int64{2}, changes.RemovedQuestions)
				assert.Zero(t, updated.Questions[1].ID)
			},
		},
		{
			name: "option id from another question is new",
			mutate: func(in *domain.QuizInput) {
				in.Questions[0].Options[1].ID = 4
			},
			check: func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges) {
				assert.Equal(t, 1, changes.AddedOptions)
				assert.Equal(t, []int64{2}, changes.RemovedOptions)
				assert.Zero(t, updated.Questions[0].Options[1].ID)
			},
		},
		{
			name: "duplicate id claims once",
			mutate: func(in *domain.QuizInput) {
				in.Questions = append(in.Questions, in.Questions[0])
			},
			check: func(t *testing.T, updated domain.Quiz, changes domain.QuizChanges) {
				require.Len(t, updated.Questions, 3)
				assert.Equal(t, int64(1), updated.Questions[0].ID)
				assert.Zero(t, updated.Questions[2].ID)
				assert.Equal(t, 1, changes.AddedQuestions)
				assert.Empty(t, changes.RemovedQuestions)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := storedQuiz()
			in := domain.InputFromQuiz(existing)
			tt.mutate(&in)
			updated, changes := app.Reconcile(existing, in)
			tt.check(t, updated, changes)
		})
	}
}

func TestNewQuizFromInput(t *testing.T) {
	in := domain.InputFromQuiz(storedQuiz())
	quiz := app.NewQuiz(3, in)
	assert.Zero(t, quiz.ID)
	assert.Equal(t, int64(3), quiz.OwnerID)
	require.Len(t, quiz.Questions, 2)
	assert.Zero(t, quiz.Questions[0].ID)
	assert.Zero(t, quiz.Questions[0].Options[0].ID)
	assert.True(t, quiz.Questions[0].Options[0].IsCorrect)
}
