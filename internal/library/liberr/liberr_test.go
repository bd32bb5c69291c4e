package liberr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid_argument", ErrInvalid("x"), http.StatusBadRequest},
		{"not_found", ErrNotFound("x"), http.StatusNotFound},
		{"unavailable", ErrUnavailable("x"), http.StatusConflict},
		{"already_returned", ErrAlreadyReturned("x"), http.StatusConflict},
		{"invalid_state", ErrInvalidState("x"), http.StatusConflict},
		{"store_unavailable", ErrStoreUnavailable("x"), http.StatusServiceUnavailable},
		{"internal", ErrInternal("x"), http.StatusInternalServerError},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("op: %w", ErrNotFound("x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.err))
		})
	}
}

func Test_HasCode(t *testing.T) {
	assert.True(t, HasCode(ErrUnavailable("x"), CodeUnavailable))
	assert.True(t, HasCode(fmt.Errorf("op: %w", ErrInvalidState("x")), CodeInvalidState))
	assert.False(t, HasCode(ErrUnavailable("x"), CodeNotFound))
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

func Test_FromStore(t *testing.T) {
	assert.NoError(t, FromStore(nil))

	// ドメインエラーはそのまま通す
	domain := ErrAlreadyReturned("x")
	assert.Equal(t, error(domain), FromStore(domain))

	// 接続系の障害は基盤障害として区別する
	assert.True(t, HasCode(FromStore(driver.ErrBadConn), CodeStoreUnavailable))
	assert.True(t, HasCode(FromStore(context.DeadlineExceeded), CodeStoreUnavailable))
	assert.True(t, HasCode(FromStore(fmt.Errorf("query: %w", driver.ErrBadConn)), CodeStoreUnavailable))

	// それ以外は INTERNAL
	assert.True(t, HasCode(FromStore(errors.New("syntax error")), CodeInternal))
}

func Test_BodyFromErr(t *testing.T) {
	d := BodyFromErr(ErrNotFound("loan not found"))
	assert.Equal(t, CodeNotFound, d.Error.Code)
	assert.Equal(t, "loan not found", d.Error.Message)

	d = BodyFromErr(errors.New("boom"))
	assert.Equal(t, CodeInternal, d.Error.Code)
}
