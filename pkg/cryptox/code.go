package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// BackupCodeLength is the length of a generated backup code.
const BackupCodeLength = 8

const backupCodeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateNumericCode returns a uniformly random fixed-width numeric code of
// the given number of digits, zero-padded. Used for emailed verification
// codes.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("code digits must be positive, got %d", digits)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate numeric code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// GenerateBackupCode returns a random alphanumeric recovery code. Each code
// is generated independently; codes in a set share no derivation.
func GenerateBackupCode() (string, error) {
	code := make([]byte, BackupCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate backup code: %w", err)
		}
		code[i] = backupCodeCharset[n.Int64()]
	}
	return string(code), nil
}
