package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

func NewOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewNumericCode — равномерный код из nDigits цифр, ведущие нули сохраняются
// ("0042" — валидный код). crypto/rand, чтобы код нельзя было предсказать.
func NewNumericCode(nDigits int) (string, error) {
	if nDigits <= 0 {
		nDigits = 4
	}
	max := big.NewInt(1)
	for i := 0; i < nDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", nDigits, n), nil
}
