package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type quizTable struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	Category    string    `bun:"category,notnull"`
	Difficulty  string    `bun:"difficulty,notnull"`
	TimeLimit   int       `bun:"time_limit,notnull"`
	IsPublic    bool      `bun:"is_public,notnull"`
	OwnerID     int64     `bun:"owner_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type questionTable struct {
	bun.BaseModel `bun:"table:questions"`

	ID            int64  `bun:"id,pk,autoincrement"`
	QuizID        int64  `bun:"quiz_id,notnull"`
	Position      int    `bun:"position,notnull"`
	Text          string `bun:"text,notnull"`
	AllowMultiple bool   `bun:"allow_multiple,notnull"`
}

type optionTable struct {
	bun.BaseModel `bun:"table:options"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Position   int    `bun:"position,notnull"`
	Text       string `bun:"text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{(*quizTable)(nil), (*questionTable)(nil), (*optionTable)(nil)} {
				if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return err
				}
			}
			if _, err := db.NewCreateIndex().Model((*questionTable)(nil)).
				Index("questions_quiz_id_idx").IfNotExists().Column("quiz_id").Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().Model((*optionTable)(nil)).
				Index("options_question_id_idx").IfNotExists().Column("question_id").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{(*optionTable)(nil), (*questionTable)(nil), (*quizTable)(nil)} {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
