package util

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	mrand "math/rand"
	"strings"

	"github.com/google/uuid"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

const verificationCodeLen = 12

// NewVerificationCode returns a 12-character uppercase alphanumeric token
// derived from a UUID. If UUID generation fails (no secure random source)
// it falls back to a base-36 token.
func NewVerificationCode() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fallbackVerificationCode()
	}
	code := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	if len(code) < verificationCodeLen {
		return fallbackVerificationCode()
	}
	return code[:verificationCodeLen]
}

func fallbackVerificationCode() string {
	n := new(big.Int).Rand(mrand.New(mrand.NewSource(mrand.Int63())), new(big.Int).Lsh(big.NewInt(1), 80))
	code := strings.ToUpper(n.Text(36))
	for len(code) < verificationCodeLen {
		code = "0" + code
	}
	return code[:verificationCodeLen]
}
