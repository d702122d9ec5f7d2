package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	pkgerrors "student-registry/pkg/errors"
)

// HashPassword returns the bcrypt hash of password at the default cost.
// Passwords over 72 bytes are a ValidationError.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", pkgerrors.NewValidationError("Invalid data, please check it again.",
			pkgerrors.FieldError{Field: "password", Rule: "bcryptlen"})
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// A malformed hash is reported as an error rather than a mismatch.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
}
