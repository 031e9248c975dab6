package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is fixed so stored digests stay comparable across deployments.
const Cost = 10

var ErrEmptyPassword = errors.New("empty password")

// dummyDigest is a valid bcrypt digest of a random string, used to spend the
// same time on unknown accounts as on known ones.
var dummyDigest = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3oKLxzQ2QWZ/Zb0Ok2MYF9W")

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func EqualizeTiming(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyDigest, []byte(password))
}
