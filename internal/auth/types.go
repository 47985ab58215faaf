package auth

import (
	"errors"
	"regexp"
)

// subjectPattern is the valid format for token subjects.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,64}$`)

// IsValidSubject reports whether s can be used as a token subject.
func IsValidSubject(s string) bool {
	return subjectPattern.MatchString(s)
}

// Role is the authorisation tier of a token.
type Role string

const (
	// RolePlatform is a linked smart-home platform (Yandex, Google, Home
	// Assistant). It may only call its own platform endpoint plus the
	// read and operate endpoints.
	RolePlatform Role = "platform"

	// RoleOperator is a person or dashboard operating the appliance.
	RoleOperator Role = "operator"

	// RoleAdmin can additionally run maintenance such as history pruning.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RolePlatform, RoleOperator, RoleAdmin}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors.
var (
	ErrTokenInvalid    = errors.New("auth: invalid token")
	ErrTokenExpired    = errors.New("auth: token has expired")
	ErrForbidden       = errors.New("auth: insufficient permissions")
	ErrInvalidSubject  = errors.New("auth: invalid subject")
	ErrInvalidRole     = errors.New("auth: invalid role")
	ErrMissingPlatform = errors.New("auth: platform tokens must name a platform")
	ErrSecretTooShort  = errors.New("auth: signing secret must be at least 32 characters")
)
