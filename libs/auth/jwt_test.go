package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := SignHS256("stylist-1", "owner", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Subject != "stylist-1" || parsed.Role != "owner" {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredAndForeignTokensRejected(t *testing.T) {
	secret := "test-secret"
	expired, err := SignHS256("u", "owner", secret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(expired, secret); err == nil {
		t.Fatal("expected expired token to fail")
	}

	// Right secret, wrong issuer.
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign foreign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(foreign, secret); err == nil {
		t.Fatal("expected foreign issuer to fail")
	}

	if _, err := SignHS256("u", "owner", "", time.Hour); err == nil {
		t.Fatal("expected empty secret to be rejected")
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	secret := "test-secret"
	h := RequireAuth(RequireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") != "stylist-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), "owner", "admin"), secret)

	owner, _ := SignHS256("stylist-1", "owner", secret, time.Hour)
	member, _ := SignHS256("stylist-1", "member", secret, time.Hour)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"owner", "Bearer " + owner, http.StatusOK},
		{"member forbidden", "Bearer " + member, http.StatusForbidden},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/services", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			// A spoofed role header must not bypass the token.
			req.Header.Set("X-Role", "owner")
			rw := httptest.NewRecorder()
			h.ServeHTTP(rw, req)
			if rw.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rw.Code)
			}
		})
	}
}
