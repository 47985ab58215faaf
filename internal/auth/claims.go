package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// Claims extends the registered JWT claims with NeuroAIR fields.
type Claims struct {
	jwt.RegisteredClaims
	Role     Role   `json:"role"`
	Platform string `json:"plt,omitempty"`
	DeviceID string `json:"dev,omitempty"`
}

// TokenRequest describes a token to issue.
type TokenRequest struct {
	Subject  string
	Role     Role
	Platform string
	DeviceID string

	// TTL of zero uses the issuer's default.
	TTL time.Duration
}

// Issuer signs and verifies link tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer.
//
// Parameters:
//   - secret: HS256 signing key, at least 32 characters
//   - issuer: value of the iss claim, checked on parse
//   - ttl: default token lifetime; link tokens are long-lived
//
// Returns:
//   - *Issuer: Ready for use
//   - error: ErrSecretTooShort
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue creates a signed token and returns it with its claims.
func (i *Issuer) Issue(req TokenRequest) (string, *Claims, error) {
	if !IsValidSubject(req.Subject) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSubject, req.Subject)
	}
	if !IsValidRole(req.Role) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}
	if req.Role == RolePlatform && req.Platform == "" {
		return "", nil, ErrMissingPlatform
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   req.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role:     req.Role,
		Platform: req.Platform,
		DeviceID: req.DeviceID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates a token's signature, expiry, issuer and role.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}
