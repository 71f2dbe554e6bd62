package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateUser           = errors.New("username or email already exists")
	ErrDuplicateQuestionNumber = errors.New("question number already exists")
	ErrDuplicateSignCode       = errors.New("traffic sign code already exists")
)

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
