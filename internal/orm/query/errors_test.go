package query

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConvertDBErrorWithPgErrors(t *testing.T) {
	// Test unique violation
	pgErr := &pgconn.PgError{Code: "23505", Detail: "Key (email)=(test@test.com) already exists."}
	err := ConvertDBError(pgErr)
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.Contains(t, err.Error(), "Key (email)")

	// Test foreign key violation
	pgErr = &pgconn.PgError{Code: "23503", Detail: "Key (author_id)=(123) is not present in table users."}
	err = ConvertDBError(pgErr)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	// Test check violation
	pgErr = &pgconn.PgError{Code: "23514", Detail: "Check constraint failed"}
	assert.ErrorIs(t, ConvertDBError(pgErr), ErrCheckViolation)

	// Test not null violation
	pgErr = &pgconn.PgError{Code: "23502", ColumnName: "title"}
	err = ConvertDBError(pgErr)
	assert.ErrorIs(t, err, ErrNotNullViolation)
	assert.Contains(t, err.Error(), "title")

	// Test malformed identifier
	pgErr = &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	assert.True(t, apierr.IsInvalidArgument(ConvertDBError(pgErr)))

	// Test unknown pg error
	pgErr = &pgconn.PgError{Code: "99999", Message: "Unknown error"}
	assert.Equal(t, pgErr, ConvertDBError(pgErr))
}

func TestConvertDBErrorWithPqErrors(t *testing.T) {
	err := ConvertDBError(&pq.Error{Code: "23505", Detail: "Key (slug)=(a) already exists."})
	assert.True(t, IsUniqueViolation(err))
	assert.Contains(t, err.Error(), "Key (slug)")

	err = ConvertDBError(&pq.Error{Code: "23503"})
	assert.True(t, IsForeignKeyViolation(err))
}

func TestConvertDBError_Generic(t *testing.T) {
	assert.NoError(t, ConvertDBError(nil))
	assert.True(t, IsNotFound(ConvertDBError(sql.ErrNoRows)))

	genericErr := errors.New("generic error")
	assert.Equal(t, genericErr, ConvertDBError(genericErr))
}
