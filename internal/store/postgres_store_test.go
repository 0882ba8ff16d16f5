package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "businesses_slug_key"}, ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "businesses_owner_id_fkey"}, ErrReferenceMissing},
		{"malformed uuid", &pgconn.PgError{Code: invalidTextRepr}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.expected)
		})
	}
}

func TestMapError_ForeignKeyIsNotConflict(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "businesses_owner_id_fkey"})

	assert.NotErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "businesses_owner_id_fkey")
}

func TestMapError_PassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, mapError(nil))

	boom := errors.New("connection reset")
	assert.Equal(t, boom, mapError(boom))

	checkErr := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(checkErr), mapError(checkErr))
}

func TestExpectDeleted_ReferencedRowIsConflict(t *testing.T) {
	err := expectDeleted(pgconn.CommandTag{}, &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "businesses_category_id_fkey"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.ErrorIs(t, expectDeleted(pgconn.NewCommandTag("DELETE 0"), nil), ErrNotFound)
	assert.NoError(t, expectDeleted(pgconn.NewCommandTag("DELETE 1"), nil))
}
