package ecies

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Sha256Base58 hashes data with SHA-256 and base58-encodes the digest. This
// is the content-addressing scheme for bill ids (hash of the bill public
// key), block hashes, and attached-file integrity tokens.
func Sha256Base58(data []byte) string {
	sum := Sha256(data)
	return base58.Encode(sum[:])
}

// Sha256 returns the raw 32-byte digest, e.g. for ECDSA signing, where the
// signed bytes must be fixed-width rather than base58 text.
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HashFile computes the integrity token for an attachment. It hashes the
// plaintext, before ECIES encryption, so the token stays the user-visible
// proof of what was uploaded regardless of who can decrypt it later.
func HashFile(plaintext []byte) string {
	return Sha256Base58(plaintext)
}
