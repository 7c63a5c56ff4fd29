package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 10

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether plain matches the stored hash.
func ComparePassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// absentHash stands in for the stored hash of an unknown account so a login
// miss costs the same bcrypt work as a wrong password.
var absentHash = sync.OnceValue(func() string {
	hash, err := HashPassword("absent-account-placeholder")
	if err != nil {
		panic(err)
	}
	return hash
})
