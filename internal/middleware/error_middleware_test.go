package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/transport/httpdto"
	estateline_errors "estateline/pkg/errors"
)

func TestErrorHandlerMapsSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"policy violation", estateline_errors.ErrPolicyViolation, http.StatusForbidden, "POLICY_VIOLATION"},
		{"unauthorized", estateline_errors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", estateline_errors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", estateline_errors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", estateline_errors.ErrInvalidInput, http.StatusBadRequest, "INVALID_REQUEST"},
		{"already exists", estateline_errors.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"conflict", estateline_errors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"rate limited", estateline_errors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"transient store", estateline_errors.Transient(assert.AnError), http.StatusServiceUnavailable, "TRANSIENT"},
		{"unclassified", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(nil))
			r.GET("/boom", func(c *gin.Context) {
				_ = c.Error(tc.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			assert.Equal(t, tc.status, w.Code)

			var body httpdto.Response[any]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestErrorHandlerPassesCleanRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler(nil))
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse("fine"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}
