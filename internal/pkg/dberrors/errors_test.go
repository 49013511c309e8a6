package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolationConstraint(t *testing.T) {
	violation := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "accountants_user_id_key"}

	name, ok := UniqueViolationConstraint(fmt.Errorf("inserting accountant: %w", violation))
	assert.True(t, ok)
	assert.Equal(t, "accountants_user_id_key", name)

	_, ok = UniqueViolationConstraint(&pgconn.PgError{Code: "23503", ConstraintName: "fee_heads_course_id_fkey"})
	assert.False(t, ok)

	_, ok = UniqueViolationConstraint(errors.New("connection reset"))
	assert.False(t, ok)
}
