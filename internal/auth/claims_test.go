package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars-long"

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testSecret, "neuroair-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := NewIssuer("short", "neuroair", time.Hour)
	if !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("err = %v, want ErrSecretTooShort", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	iss := newTestIssuer(t)

	token, issued, err := iss.Issue(TokenRequest{
		Subject:  "yandex-link",
		Role:     RolePlatform,
		Platform: "yandex",
		DeviceID: "neuroair-001",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}
	if issued.ID == "" {
		t.Error("token has no jti")
	}

	claims, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "yandex-link" {
		t.Errorf("Subject = %q, want yandex-link", claims.Subject)
	}
	if claims.Role != RolePlatform {
		t.Errorf("Role = %q, want platform", claims.Role)
	}
	if claims.Platform != "yandex" {
		t.Errorf("Platform = %q, want yandex", claims.Platform)
	}
	if claims.DeviceID != "neuroair-001" {
		t.Errorf("DeviceID = %q", claims.DeviceID)
	}
	if claims.ID != issued.ID {
		t.Errorf("jti = %q, want %q", claims.ID, issued.ID)
	}
}

func TestIssue_CustomTTL(t *testing.T) {
	iss := newTestIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return now }

	_, claims, err := iss.Issue(TokenRequest{Subject: "ops", Role: RoleOperator, TTL: 10 * time.Minute})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want %v", got, now.Add(10*time.Minute))
	}
}

func TestIssue_Validation(t *testing.T) {
	iss := newTestIssuer(t)
	tests := []struct {
		name string
		req  TokenRequest
		want error
	}{
		{"empty subject", TokenRequest{Role: RoleOperator}, ErrInvalidSubject},
		{"bad subject", TokenRequest{Subject: "has space", Role: RoleOperator}, ErrInvalidSubject},
		{"unknown role", TokenRequest{Subject: "x", Role: "root"}, ErrInvalidRole},
		{"platform without name", TokenRequest{Subject: "x", Role: RolePlatform}, ErrMissingPlatform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := iss.Issue(tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_Expired(t *testing.T) {
	iss := newTestIssuer(t)
	start := time.Now()
	iss.now = func() time.Time { return start }

	token, _, err := iss.Issue(TokenRequest{Subject: "ops", Role: RoleOperator, TTL: time.Minute})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = iss.Parse(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	iss := newTestIssuer(t)
	token, _, err := iss.Issue(TokenRequest{Subject: "ops", Role: RoleOperator})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewIssuer(strings.Repeat("x", 40), "neuroair-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	iss := newTestIssuer(t)
	token, _, err := iss.Issue(TokenRequest{Subject: "ops", Role: RoleOperator})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewIssuer(testSecret, "someone-else", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	iss := newTestIssuer(t)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "neuroair-test",
			Subject:   "attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}
	if _, err := iss.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParse_UnknownRole(t *testing.T) {
	iss := newTestIssuer(t)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "neuroair-test",
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "superuser",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := iss.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	iss := newTestIssuer(t)
	if _, err := iss.Parse("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}
