package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// instead of being silently truncated.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: password does not match")

// PasswordService hashes and verifies passwords with bcrypt.
//
// The cost is a field so tests can run at bcrypt.MinCost. Production runs
// at 12, roughly a quarter second per hash on current hardware.
type PasswordService struct {
	cost int
}

// NewPasswordServiceWithCost returns a PasswordService with the given cost,
// clamped to bcrypt's allowed range. Tests use bcrypt.MinCost.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)}
}

// Hash returns the bcrypt hash of plaintext. The output embeds salt and cost:
//
//	$2a$12$<22-char salt><31-char hash>
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A wrong password yields
// ErrPasswordMismatch; a malformed hash yields a different error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
