package repository

import (
	"context"
	"database/sql"

	"induction-portal/internal/domain"

	"github.com/jmoiron/sqlx"
)

// DBTX is an interface abstracting *sqlx.DB and *sqlx.Tx for repository use.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// checkAffected turns a zero-row update or delete into sql.ErrNoRows.
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Repositories groups the sqlx adapters sharing one database handle.
type Repositories struct {
	Users        domain.UserRepository
	Inductions   domain.InductionRepository
	Submissions  domain.SubmissionRepository
	Answers      domain.AnswerRepository
	Videos       domain.VideoCompletionRepository
	Transactions domain.TransactionManager
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:        NewSQLXUserRepository(db),
		Inductions:   NewInductionDatabaseAdapter(db),
		Submissions:  NewSubmissionDatabaseAdapter(db),
		Answers:      NewAnswerDatabaseAdapter(db),
		Videos:       NewVideoCompletionDatabaseAdapter(db),
		Transactions: NewTransactionManagerAdapter(db),
	}
}
