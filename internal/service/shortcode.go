package service

import (
	"crypto/md5"
	"encoding/hex"
)

// shortCodeLength is the number of hex characters kept from the digest.
const shortCodeLength = 6

// ShortCode derives the short code for a URL by hashing its UTF-8 bytes with
// MD5 and keeping the first 6 lowercase hex characters. The mapping is
// deterministic: the same URL always yields the same code. Distinct URLs may
// collide; the caller resolves that at insert time.
func ShortCode(originalURL string) string {
	sum := md5.Sum([]byte(originalURL))
	return hex.EncodeToString(sum[:])[:shortCodeLength]
}
