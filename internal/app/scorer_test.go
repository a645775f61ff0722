package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhub/internal/app"
	"quizhub/internal/domain"
)

var epoch = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

// scoringQuiz: q0 single {A correct, B, C}; q1 multi {A, B correct, C correct};
// q2 single {A, B correct}.
func scoringQuiz() domain.Quiz {
	return domain.Quiz{ID: 1, Questions: []domain.Question{
		{ID: 100, Options: []domain.Option{{ID: 1, IsCorrect: true}, {ID: 2}, {ID: 3}}},
		{ID: 200, AllowMultiple: true, Options: []domain.Option{{ID: 4}, {ID: 5, IsCorrect: true}, {ID: 6, IsCorrect: true}}},
		{ID: 300, Options: []domain.Option{{ID: 7}, {ID: 8, IsCorrect: true}}},
	}}
}

func TestIsCorrectSingleAnswer(t *testing.T) {
	q := scoringQuiz().Questions[0]
	assert.True(t, app.IsCorrect(q, []int64{1}))
	assert.False(t, app.IsCorrect(q, []int64{2}))
	assert.False(t, app.IsCorrect(q, []int64{1, 2}))
}

func TestIsCorrectMultiAnswer(t *testing.T) {
	q := scoringQuiz().Questions[1]
	assert.True(t, app.IsCorrect(q, []int64{5, 6}))
	assert.True(t, app.IsCorrect(q, []int64{6, 5}))
	assert.False(t, app.IsCorrect(q, []int64{5}))
	assert.False(t, app.IsCorrect(q, []int64{4, 5, 6}))
}

func TestIsCorrectSingleUsesFirstCorrectOption(t *testing.T) {
	q := domain.Question{Options: []domain.Option{{ID: 1}, {ID: 2, IsCorrect: true}, {ID: 3, IsCorrect: true}}}
	assert.True(t, app.IsCorrect(q, []int64{2}))
	assert.False(t, app.IsCorrect(q, []int64{3}))
	assert.False(t, app.IsCorrect(domain.Question{Options: []domain.Option{{ID: 1}}}, []int64{1}))
}

func TestScorerFinalisesWithPercentage(t *testing.T) {
	scorer := app.NewScorer(scoringQuiz())
	st := scorer.Start(42, epoch)

	out, err := scorer.Submit(st, 0, []int64{1}, epoch)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, 1, out.Score)
	assert.False(t, out.IsLast)
	assert.Equal(t, 1, out.NextIndex)

	out, err = scorer.Submit(st, 1, []int64{5}, epoch)
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, 1, out.Score)

	out, err = scorer.Submit(st, 2, []int64{8}, epoch)
	require.NoError(t, err)
	assert.True(t, out.IsLast)
	require.NotNil(t, out.Result)
	assert.Equal(t, domain.AttemptResult{QuizID: 1, Score: 2, Total: 3, Percentage: 66.7}, *out.Result)
}

func TestScorerRejectsWithoutChangingState(t *testing.T) {
	scorer := app.NewScorer(scoringQuiz())
	st := scorer.Start(42, epoch)
	_, err := scorer.Submit(st, 0, []int64{1}, epoch)
	require.NoError(t, err)
	before := *st
	before.Selections = map[int][]int64{0: {1}}

	tests := []struct {
		name      string
		index     int
		selection []int64
		want      error
	}{
		{"empty selection", 1, nil, domain.ErrEmptySelection},
		{"unknown option", 1, []int64{1}, domain.ErrOptionNotFound},
		{"not reached", 2, []int64{8}, domain.ErrQuestionNotReached},
		{"out of range", 3, []int64{1}, domain.ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorer.Submit(st, tt.index, tt.selection, epoch.Add(time.Minute))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, st.Score)
			assert.Equal(t, 1, st.Index)
			assert.Equal(t, before.Selections, st.Selections)
			assert.Equal(t, epoch, st.UpdatedAt)
		})
	}
}

func TestScorerResubmitReplacesAward(t *testing.T) {
	scorer := app.NewScorer(scoringQuiz())
	st := scorer.Start(1, epoch)

	_, err := scorer.Submit(st, 0, []int64{1}, epoch)
	require.NoError(t, err)
	require.True(t, scorer.Navigate(st, 0, epoch))

	out, err := scorer.Submit(st, 0, []int64{2, 2}, epoch)
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, []int64{2}, scorer.Selected(st, 0))
	assert.Equal(t, 1, st.Reached)
}

func TestScorerNavigate(t *testing.T) {
	scorer := app.NewScorer(scoringQuiz())
	st := scorer.Start(1, epoch)

	// cannot skip ahead of the furthest reached question
	require.True(t, scorer.Navigate(st, 2, epoch))
	assert.Equal(t, 0, st.Index)

	assert.False(t, scorer.Navigate(st, -1, epoch))
	assert.False(t, scorer.Navigate(st, 3, epoch))

	view, ok := scorer.Question(0)
	require.True(t, ok)
	assert.Equal(t, int64(100), view.ID)
	for _, opt := range view.Options {
		assert.Nil(t, opt.IsCorrect)
	}
	_, ok = scorer.Question(5)
	assert.False(t, ok)
}

func TestScorerZeroQuestions(t *testing.T) {
	scorer := app.NewScorer(domain.Quiz{ID: 9})
	st := scorer.Start(1, epoch)
	assert.Equal(t, domain.AttemptResult{QuizID: 9, Total: 0, Percentage: 0}, scorer.Finish(st))
	_, err := scorer.Submit(st, 0, []int64{1}, epoch)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, app.Percentage(0, 0))
	assert.Equal(t, 33.3, app.Percentage(1, 3))
	assert.Equal(t, 66.7, app.Percentage(2, 3))
	assert.Equal(t, 100.0, app.Percentage(4, 4))
}

func TestScorerMatchesQuestionList(t *testing.T) {
	quiz := scoringQuiz()
	st := app.NewScorer(quiz).Start(1, epoch)
	assert.Equal(t, []int64{100, 200, 300}, st.Questions)
	assert.True(t, app.NewScorer(quiz).Matches(st))

	reordered := scoringQuiz()
	reordered.Questions[0], reordered.Questions[1] = reordered.Questions[1], reordered.Questions[0]
	assert.False(t, app.NewScorer(reordered).Matches(st))

	shrunk := scoringQuiz()
	shrunk.Questions = shrunk.Questions[:1]
	assert.False(t, app.NewScorer(shrunk).Matches(st))
}

func TestScorerFinishIgnoresAwardsOutsideQuiz(t *testing.T) {
	shrunk := scoringQuiz()
	shrunk.Questions = shrunk.Questions[:1]
	st := &domain.AttemptState{Score: 2, Awarded: map[int]int{0: 1, 1: 1, 2: 1}}

	result := app.NewScorer(shrunk).Finish(st)
	assert.Equal(t, domain.AttemptResult{QuizID: 1, Score: 1, Total: 1, Percentage: 100}, result)
}
