package util

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestValidateJWT(t *testing.T) {
	token := signToken(t, "secret", &Claims{
		Email: "a@b.test",
		StandardClaims: jwt.StandardClaims{
			Subject:   "u1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	claims, err := ValidateJWT(token, "secret")
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("expected subject u1, got %q", claims.Subject)
	}
	if claims.Email != "a@b.test" {
		t.Fatalf("expected email to round-trip, got %q", claims.Email)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token := signToken(t, "secret", &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "u1"},
	})
	if _, err := ValidateJWT(token, "other"); err == nil {
		t.Fatal("expected verification failure with the wrong secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	token := signToken(t, "secret", &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "u1",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	})
	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateJWTMissingSubject(t *testing.T) {
	token := signToken(t, "secret", &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Fatal("expected token without subject to be rejected")
	}
}
