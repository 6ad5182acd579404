package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// tokenLength is the number of hex characters in an HMAC-SHA256 digest.
const tokenLength = 64

// verifyToken recomputes the MAC for the given path and content length and
// compares it to the client-supplied token from the v query parameter. The
// MAC message is "<path> <length>", keyed with the shared secret.
//
// The digests are compared with hmac.Equal, so the comparison time does not
// depend on where the first mismatch occurs. Tokens of the wrong length are
// rejected up front; that check only depends on the length, not the content.
// Hex decoding accepts both upper- and lowercase digits.
func verifyToken(secret, path string, length int64, token string) bool {
	if len(token) != tokenLength {
		return false
	}

	provided, err := hex.DecodeString(token)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(path + " " + strconv.FormatInt(length, 10)))

	return hmac.Equal(provided, mac.Sum(nil))
}
