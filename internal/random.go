package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// NewNumericCode returns a uniformly random code of the given number of
// decimal digits, leading zeros included.
func NewNumericCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// NewBackupCodes returns count distinct random numeric codes.
func NewBackupCodes(count, digits int) ([]string, error) {
	if count <= 0 {
		return nil, errors.New("invalid backup code count")
	}

	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	for len(codes) < count {
		code, err := NewNumericCode(digits)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}
