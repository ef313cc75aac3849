package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	ModePlaintext = "plaintext"
	ModeBcrypt    = "bcrypt"

	bcryptCost = 12
)

// PasswordHasher turns a password into its stored form and checks a login
// attempt against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, stored string) bool
}

// NewPasswordHasher returns the hasher for mode.
func NewPasswordHasher(mode string) (PasswordHasher, error) {
	switch mode {
	case "", ModePlaintext:
		return PlaintextHasher{}, nil
	case ModeBcrypt:
		return BcryptHasher{Cost: bcryptCost}, nil
	}
	return nil, fmt.Errorf("unknown password mode %q", mode)
}

// PlaintextHasher stores passwords as given and compares them by exact
// equality. It keeps data written by earlier storefront versions usable.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) { return password, nil }

func (PlaintextHasher) Matches(password, stored string) bool { return password == stored }

// BcryptHasher stores bcrypt hashes. Records that are not bcrypt hashes are
// compared as plaintext so accounts created before the switch can still log in.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	return HashPassword(password, h.Cost)
}

func (h BcryptHasher) Matches(password, stored string) bool {
	if !IsBcryptHash(stored) {
		return password == stored
	}
	return CheckPassword(password, stored)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
