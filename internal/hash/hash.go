// Package hash keeps password hashing separate from both the data model
// and the token service: credentials are compared as plain values, never
// through methods on persisted entities.
package hash

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

func Password(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hashed string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
