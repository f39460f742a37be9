package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength  = 6
	tempPasswordLength = 10
	tempAlphabet       = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch = errors.New("invalid credentials")

	legacyDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// ============================================================
// Password Hashing
// ============================================================

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password with a stored hash. Bare SHA-256 hex
// digests from older stores are still accepted; needsUpgrade reports that
// the caller should rehash with bcrypt.
func CheckPassword(stored, password string) (needsUpgrade bool, err error) {
	if legacyDigest.MatchString(stored) {
		sum := sha256.Sum256([]byte(password))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(stored)) != 1 {
			return false, ErrPasswordMismatch
		}
		return true, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
		return false, ErrPasswordMismatch
	}
	return false, nil
}

// TempPassword generates the one-time password handed out on an admin reset.
func TempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(tempAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tempAlphabet[n.Int64()]
	}
	return string(buf), nil
}
