package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns a random hex string of size*2 characters,
// generated from size bytes of crypto/rand entropy.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
