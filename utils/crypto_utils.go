package utils

import (
	"crypto"
	_ "crypto/sha256"
)

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	newhash := crypto.SHA256
	pssh := newhash.New()
	pssh.Write(msg)
	return pssh.Sum(nil)
}
