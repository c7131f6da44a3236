package helpers

import "golang.org/x/crypto/bcrypt"

// DefaultPasswordCost is the bcrypt work factor used outside tests.
const DefaultPasswordCost = 10

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return &PasswordHasher{Cost: cost}
}

// Hash hashes the plain text password using bcrypt
func (p *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), p.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain hashes to hash.
func (p *PasswordHasher) Compare(hash, plain string) bool {
	return CompareHashAndPassword(hash, plain)
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
