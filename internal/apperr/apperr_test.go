package apperr

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("complete day: %w", NotFound("class not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "class not found", Message(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestUpstreamHidesCause(t *testing.T) {
	err := Upstream("could not save progress", sql.ErrConnDone)
	assert.Equal(t, "could not save progress", Message(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.True(t, Retryable(err))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.False(t, Retryable(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestAuthorizationKinds(t *testing.T) {
	assert.True(t, IsAuthorization(Unauthenticated("login required")))
	assert.True(t, IsAuthorization(Forbidden("admins only")))
	assert.False(t, IsAuthorization(Validation("bad")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("x")))
	assert.False(t, Is(nil, KindInternal))
}
