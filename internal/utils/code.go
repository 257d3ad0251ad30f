package utils

import (
	"crypto/rand"
	"math/big"
)

// codeCharset excludes ambiguous characters (0/O, 1/I) since referral
// codes end up typed from printed QR flyers.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a random uppercase code of the given length,
// suitable for referral links.
func GenerateCode(length int) string {
	result := make([]byte, length)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken;
			// fall back to a fixed character rather than panic.
			result[i] = codeCharset[0]
			continue
		}
		result[i] = codeCharset[n.Int64()]
	}
	return string(result)
}
