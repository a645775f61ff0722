package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type userTable struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type attemptTable struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuizID     int64     `bun:"quiz_id,notnull"`
	UserID     int64     `bun:"user_id,notnull"`
	Score      int       `bun:"score,notnull"`
	Total      int       `bun:"total,notnull"`
	Percentage float64   `bun:"percentage,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().Model((*userTable)(nil)).IfNotExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateTable().Model((*attemptTable)(nil)).IfNotExists().Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().Model((*attemptTable)(nil)).
				Index("quiz_attempts_quiz_user_idx").IfNotExists().Column("quiz_id", "user_id").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewDropTable().Model((*attemptTable)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewDropTable().Model((*userTable)(nil)).IfExists().Exec(ctx)
			return err
		},
	)
}
