package domain

import (
	"crypto/md5"
	"encoding/hex"
)

// The token is the MD5 of a fixed window of the encoded form.
const (
	tokenWindowStart = 9
	tokenWindowEnd   = 35
)

// DeriveToken computes the icognocheck value for the current state.
// Encodings shorter than the window produce a digest of whatever part of
// the window exists, possibly the empty string.
func DeriveToken(s *Session) string {
	enc := s.Encode()

	start, end := tokenWindowStart, tokenWindowEnd
	if start > len(enc) {
		start = len(enc)
	}
	if end > len(enc) {
		end = len(enc)
	}

	sum := md5.Sum([]byte(enc[start:end]))
	return hex.EncodeToString(sum[:])
}

// RefreshToken derives a new token and stores it under icognocheck.
func RefreshToken(s *Session) string {
	token := DeriveToken(s)
	s.Set(FieldToken, token)
	return token
}
