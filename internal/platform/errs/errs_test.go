package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUnavailable, "db_unreachable", "the database is unavailable", cause)

	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.True(t, Is(err, KindUnavailable))
	assert.False(t, Is(err, KindValidation))
	assert.ErrorIs(t, err, cause)
}

func TestKindOfDefaultsToInternalForForeignErrors(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestConstructorsSetExpectedKind(t *testing.T) {
	assert.Equal(t, KindValidation, Validation("r", "m").Kind)
	assert.Equal(t, KindAuthz, Authz("r", "m").Kind)
	assert.Equal(t, KindNotFound, NotFound("r", "m").Kind)
	assert.Equal(t, KindConflict, Conflict("r", "m").Kind)
	assert.Equal(t, KindIntegrity, Integrity("r", "m").Kind)
}

func TestErrorMessageIncludesCauseWhenPresent(t *testing.T) {
	cause := errors.New("root cause")
	withCause := Wrap(KindInternal, "x", "y", cause)
	withoutCause := New(KindInternal, "x", "y")

	assert.Contains(t, withCause.Error(), "root cause")
	assert.NotContains(t, withoutCause.Error(), "root cause")
}
