package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/samber/oops"
)

// GenerateCode returns a uniformly random decimal code of exactly digits
// characters, zero padded.
func GenerateCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", oops.Code("AUTH_CODE_LENGTH").With("digits", digits).Errorf("code length out of range")
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", oops.Code("AUTH_CODE_RANDOM").Wrap(err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
