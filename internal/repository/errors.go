package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername is returned when trying to create a user with a taken username
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrDuplicateDNI is returned when trying to create a person with an existing national ID
	ErrDuplicateDNI = errors.New("person with this dni already exists")

	// ErrDuplicateToken is returned when trying to create a token with an existing hash
	ErrDuplicateToken = errors.New("token with this hash already exists")

	// ErrTokenInactive is returned when a rotation finds the presented token
	// already revoked or expired, e.g. because a concurrent rotation won.
	ErrTokenInactive = errors.New("refresh token is not active")
)

const uniqueViolation = "23505"

var constraintErrors = map[string]error{
	"users_email_key":               ErrDuplicateEmail,
	"users_username_key":            ErrDuplicateUsername,
	"persons_dni_key":               ErrDuplicateDNI,
	"refresh_tokens_token_hash_key": ErrDuplicateToken,
}

// mapUniqueViolation translates a unique_violation raised by PostgreSQL into
// the matching sentinel. Other errors are returned wrapped with op.
func mapUniqueViolation(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if sentinel, ok := constraintErrors[pqErr.Constraint]; ok {
			return fmt.Errorf("%s: %w", op, sentinel)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
