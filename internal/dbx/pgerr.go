package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// MapError translates driver errors into repository-level sentinels.
// A missing row, a malformed uuid and a dangling foreign key all read as
// common.ErrorNotFound; a unique violation reads as common.ErrorAlreadyExists.
// Anything else is wrapped as "db error".
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation, pgInvalidTextRepr:
			return fmt.Errorf("%w: %s", common.ErrorNotFound, pgErr.Message)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
