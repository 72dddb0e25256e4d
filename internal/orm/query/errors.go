package query

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Common query error types
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = fmt.Errorf("record %w", apierr.ErrNotFound)

	// ErrUniqueViolation is returned when a unique constraint is violated
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrCheckViolation is returned when a check constraint is violated
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrNotNullViolation is returned when a NOT NULL constraint is violated
	ErrNotNullViolation = errors.New("not null constraint violation")

	// ErrFieldNotFound is returned when a field does not exist on a resource
	ErrFieldNotFound = fmt.Errorf("field %w", apierr.ErrPropertyNotFound)
)

// ConvertDBError converts database-specific errors to query errors.
// Both pgx and lib/pq errors are recognised.
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	// Check for sql.ErrNoRows
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	code, detail, column, ok := postgresError(err)
	if !ok {
		return err
	}

	switch code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", ErrUniqueViolation, detail)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, detail)
	case "23514": // check_violation
		return fmt.Errorf("%w: %s", ErrCheckViolation, detail)
	case "23502": // not_null_violation
		return fmt.Errorf("%w: column %s", ErrNotNullViolation, column)
	case "22P02": // invalid_text_representation, e.g. a malformed uuid
		return fmt.Errorf("%w: %s", apierr.ErrInvalidIdentifier, err.Error())
	}

	return err
}

func postgresError(err error) (code, detail, column string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Detail, pgErr.ColumnName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Detail, pqErr.Column, true
	}

	return "", "", "", false
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUniqueViolation returns true if the error is ErrUniqueViolation
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation returns true if the error is ErrForeignKeyViolation
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}
