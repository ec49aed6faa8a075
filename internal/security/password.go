package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrMismatch = errors.New("password mismatch")

// Hasher hashes passwords with a bcrypt cost fixed at construction.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares in constant time. Any failure, including a malformed
// hash, is reported as ErrMismatch.
func (h *Hasher) CheckPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrMismatch
	}
	return nil
}

var defaultHasher = NewHasher(bcrypt.DefaultCost)

// HashPassword hashes with bcrypt.DefaultCost.
func HashPassword(plain string) (string, error) {
	return defaultHasher.HashPassword(plain)
}

func CheckPassword(hash, plain string) error {
	return defaultHasher.CheckPassword(hash, plain)
}
