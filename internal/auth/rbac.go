package auth

import (
	"github.com/google/uuid"
	"github.com/upb/account-service/models"
)

// Decision is the outcome of an admission check
type Decision int

const (
	Admitted Decision = iota
	RejectedUnauthenticated
	RejectedForbidden
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case RejectedUnauthenticated:
		return "rejected_unauthenticated"
	case RejectedForbidden:
		return "rejected_forbidden"
	default:
		return "unknown"
	}
}

// TokenVerifier verifies a bearer token and returns its identity
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// Authenticate resolves a bearer token into an identity.
// An absent token is unauthenticated; a present but unverifiable one is forbidden.
func Authenticate(token string, verifier TokenVerifier) (*Identity, Decision, error) {
	if token == "" {
		return nil, RejectedUnauthenticated, ErrMissingToken
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		return nil, RejectedForbidden, err
	}

	return identity, Admitted, nil
}

// RequireRoles admits the identity only if its role is one of roles
func RequireRoles(identity *Identity, roles ...models.Role) Decision {
	if identity == nil {
		return RejectedUnauthenticated
	}

	switch identity.Role {
	case models.RoleUser, models.RoleAdmin:
		for _, role := range roles {
			if role == identity.Role {
				return Admitted
			}
		}
		return RejectedForbidden
	default:
		return RejectedForbidden
	}
}

// CanAccessAccount admits admins for any account and users for their own
func CanAccessAccount(identity *Identity, targetID string) Decision {
	if identity == nil {
		return RejectedUnauthenticated
	}

	switch identity.Role {
	case models.RoleAdmin:
		return Admitted
	case models.RoleUser:
		if sameAccount(identity.UserID, targetID) {
			return Admitted
		}
		return RejectedForbidden
	default:
		return RejectedForbidden
	}
}

func sameAccount(a, b string) bool {
	idA, err := uuid.Parse(a)
	if err != nil {
		return false
	}
	idB, err := uuid.Parse(b)
	if err != nil {
		return false
	}
	return idA == idB
}
