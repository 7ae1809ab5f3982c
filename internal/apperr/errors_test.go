package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindMappings(t *testing.T) {
	cases := []struct {
		err  *Error
		http int
		code codes.Code
	}{
		{Unauthenticated("no token"), http.StatusUnauthorized, codes.Unauthenticated},
		{Forbidden("nope"), http.StatusForbidden, codes.PermissionDenied},
		{NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{Conflict("busy"), http.StatusConflict, codes.FailedPrecondition},
		{Validation("bad"), http.StatusUnprocessableEntity, codes.InvalidArgument},
		{Internal(errors.New("db down")), http.StatusInternalServerError, codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.http, tc.err.Kind.HTTPStatus(), tc.err.Error())
		st, ok := status.FromError(tc.err)
		assert.True(t, ok)
		assert.Equal(t, tc.code, st.Code())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Conflict("Book is already borrowed"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, "Book is already borrowed", MessageOf(err))

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("plain")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternal_HidesCause(t *testing.T) {
	err := Internal(errors.New("pq: password authentication failed"))
	st, _ := status.FromError(err)
	assert.Equal(t, "internal server error", st.Message())
	assert.ErrorContains(t, err, "password authentication failed")
}
