package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

var ErrNotFound = repository.ErrNotFound

const uniqueViolationCode = "23505"

type scanTarget interface {
	Scan(dest ...any) error
}

func ensureAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
