package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/insight/backend/internal/service"
	"github.com/emilythestrangee/insight/backend/internal/store"
	"github.com/emilythestrangee/insight/backend/internal/threads"
	"github.com/emilythestrangee/insight/backend/internal/voting"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{voting.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: %q", voting.ErrInvalidVoteType, "x"), http.StatusBadRequest},
		{threads.ErrEmptyContent, http.StatusBadRequest},
		{service.ErrInvalidPost, http.StatusBadRequest},
		{service.ErrInvalidUsername, http.StatusBadRequest},
		{fmt.Errorf("%w: post/1", voting.ErrTargetNotFound), http.StatusNotFound},
		{fmt.Errorf("failed to get user: %w", store.ErrNotFound), http.StatusNotFound},
		{service.ErrAlreadyPostedToday, http.StatusConflict},
		{service.ErrUserExists, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
			}
		})
	}
}

func TestParamID(t *testing.T) {
	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		got, valid := paramID(c, "id")
		require.Equal(t, ok, valid, raw)
		if ok {
			require.Equal(t, int64(12), got)
		} else {
			require.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

func TestQueryLimit(t *testing.T) {
	for raw, want := range map[string]int{"": 0, "5": 5, "-1": 0, "x": 0} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?limit="+raw, nil)

		require.Equal(t, want, queryLimit(c), raw)
	}
}
