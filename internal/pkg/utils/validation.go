package utils

import "regexp"

var nidPattern = regexp.MustCompile(`^[0-9]{8,17}$`)

// IsValidNID reports whether the given identifier is a usable national-ID
// lookup key: digits only, 8 to 17 characters.
func IsValidNID(nid string) bool {
	return nidPattern.MatchString(nid)
}

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// IsValidTxHash reports whether the value is a 32-byte 0x-prefixed hash.
func IsValidTxHash(hash string) bool {
	return txHashPattern.MatchString(hash)
}
