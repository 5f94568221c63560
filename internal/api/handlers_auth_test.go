package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dialytics/internal/models"
	"github.com/terraincognita07/dialytics/internal/services"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	response := env.request(t, http.MethodGet, "/healthz", nil, "")
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	if response.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestLoginIssuesExpiringToken(t *testing.T) {
	env := newTestEnv(t)

	response := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "NURSE@clinic.example", "password": testPassword}, "")
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	payload := loginResponse{}
	decodeJSON(t, response, &payload)
	if !payload.ExpiresAt.Equal(testNow.Add(defaultAuthTokenTTL)) {
		t.Fatalf("expected expiry %s, got %s", testNow.Add(defaultAuthTokenTTL), payload.ExpiresAt)
	}
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	type testCase struct {
		name       string
		body       map[string]string
		wantStatus int
		wantError  string
	}

	tests := []testCase{
		{name: "wrong password", body: map[string]string{"email": testEmail, "password": "WrongPass42"}, wantStatus: fiber.StatusUnauthorized, wantError: "invalid credentials"},
		{name: "unknown email", body: map[string]string{"email": "other@clinic.example", "password": testPassword}, wantStatus: fiber.StatusUnauthorized, wantError: "invalid credentials"},
		{name: "empty body", body: map[string]string{}, wantStatus: fiber.StatusUnauthorized, wantError: "invalid credentials"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			response := env.request(t, http.MethodPost, "/api/auth/login", testCase.body, "")
			if response.StatusCode != testCase.wantStatus {
				t.Fatalf("expected status %d, got %d", testCase.wantStatus, response.StatusCode)
			}
			if got := readAPIError(t, response); got != testCase.wantError {
				t.Fatalf("expected error %q, got %q", testCase.wantError, got)
			}
		})
	}
}

func TestLoginRateLimitsRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	wrong := map[string]string{"email": testEmail, "password": "WrongPass42"}

	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		response := env.request(t, http.MethodPost, "/api/auth/login", wrong, "")
		if response.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d: expected status 401, got %d", attempt, response.StatusCode)
		}
	}

	response := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{"email": testEmail, "password": testPassword}, "")
	if response.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected status 429 after repeated failures, got %d", response.StatusCode)
	}
}

func TestAttemptLimiterWindowExpires(t *testing.T) {
	limiter := newAttemptLimiter()
	start := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		limiter.recordFailure("10.0.0.1", start)
	}
	if !limiter.blocked("10.0.0.1", start.Add(time.Minute)) {
		t.Fatal("expected key to be blocked inside the window")
	}
	if limiter.blocked("10.0.0.1", start.Add(loginAttemptWindow+time.Second)) {
		t.Fatal("expected failures to expire after the window")
	}
	if limiter.blocked("10.0.0.2", start) {
		t.Fatal("expected other keys to stay unblocked")
	}
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	repo := &memoryUserRepo{}
	auth := services.NewAuthService(repo)
	ghost, err := auth.CreateClinician("ghost@clinic.example", testPassword, models.RoleClinician, false)
	if err != nil {
		t.Fatalf("create clinician: %v", err)
	}
	ghost.ID = 999

	handler, err := NewHandler(services.NewAnalyticsService(env.source, time.UTC, nil), auth, Options{
		SecretKey: testSecret,
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	expired, _, err := handler.buildToken(models.User{ID: 1}, testNow.Add(-13*time.Hour))
	if err != nil {
		t.Fatalf("build expired token: %v", err)
	}
	unknownUser, _, err := handler.buildToken(ghost, testNow)
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	otherSecret, err := NewHandler(services.NewAnalyticsService(env.source, time.UTC, nil), auth, Options{
		SecretKey: "another-secret-another-secret-xx",
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	forged, _, err := otherSecret.buildToken(models.User{ID: 1}, testNow)
	if err != nil {
		t.Fatalf("build forged token: %v", err)
	}

	tokens := map[string]string{
		"missing":      "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"unknown user": unknownUser,
		"wrong secret": forged,
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			response := env.request(t, http.MethodGet, "/api/patients/p-1/balance", nil, token)
			if response.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", response.StatusCode)
			}
		})
	}
}
