package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubValidator struct {
	userID int
	err    error
}

func (s *stubValidator) ValidateAccessToken(token string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.userID, nil
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		cookie         string
		validator      *stubValidator
		expectedStatus int
		expectedUserID int
	}{
		{name: "bearer header", header: "Bearer abc", validator: &stubValidator{userID: 7}, expectedStatus: http.StatusOK, expectedUserID: 7},
		{name: "cookie", cookie: "abc", validator: &stubValidator{userID: 9}, expectedStatus: http.StatusOK, expectedUserID: 9},
		{name: "missing token", validator: &stubValidator{userID: 7}, expectedStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", validator: &stubValidator{userID: 7}, expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", validator: &stubValidator{err: errors.New("expired")}, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.validator)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedUserID, gotUserID)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var fromContext string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = GetRequestID(r.Context())
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequestIDMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, fromContext)
		assert.Equal(t, fromContext, rec.Header().Get("X-Request-ID"))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-1")
		rec := httptest.NewRecorder()
		RequestIDMiddleware(next).ServeHTTP(rec, req)

		assert.Equal(t, "req-1", fromContext)
	})

	t.Run("replaces implausible id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
		rec := httptest.NewRecorder()
		RequestIDMiddleware(next).ServeHTTP(rec, req)

		assert.Len(t, fromContext, 36)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()

	RecoveryMiddleware(zap.NewNop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL")
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 20)))
	rec := httptest.NewRecorder()

	RequestSizeLimitMiddleware(10)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMatchOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    string
		wantOK  bool
	}{
		{"no origin", "", []string{"*"}, "", false},
		{"wildcard echoes origin", "https://a.example", []string{"*"}, "https://a.example", true},
		{"case insensitive match", "https://A.example", []string{"https://a.example"}, "https://A.example", true},
		{"not allowed", "https://c.example", []string{"https://a.example"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchOrigin(tt.origin, tt.allowed)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler := CORSMiddleware([]string{"https://a.example"})(next)

	t.Run("preflight", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/decks", nil)
		req.Header.Set("Origin", "https://a.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, called)
		assert.Equal(t, "https://a.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	})

	t.Run("simple request from unknown origin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/decks", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLoggerMiddleware_RecordsAuthenticatedUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := LoggerMiddleware(zap.New(core))(AuthMiddleware(&stubValidator{userID: 42})(next))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", nil)
	req.Header.Set("Authorization", "Bearer abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(42), fields["user_id"])
		assert.Equal(t, int64(http.StatusCreated), fields["status"])
	}
}
