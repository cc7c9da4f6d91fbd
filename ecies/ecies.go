// Package ecies implements the payload and file encryption the bill engine
// relies on: an ECDH-then-symmetric-cipher construction over secp256k1, plus
// the SHA-256/base58 content hashing used for bill ids, block hashes and
// file integrity tokens.
//
// The ECDH step reuses btcec.GenerateSharedSecret, the exact primitive
// lnd's sphinx onion router (lightning-onion) uses to derive per-hop keys;
// this package swaps the onion's hand-rolled stream cipher for
// chacha20poly1305 from golang.org/x/crypto, which is already an lnd
// dependency.
package ecies

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrCiphertextTooShort is returned when decoded data is too small to
// contain an ephemeral public key and a nonce.
var ErrCiphertextTooShort = errors.New("ecies: ciphertext too short")

const (
	compressedPubKeyLen = 33
	nonceLen            = chacha20poly1305.NonceSizeX
)

// deriveKey turns an ECDH shared secret into a chacha20poly1305 key via
// HKDF-SHA256, with a fixed info string for domain separation from any other
// use of the same shared secret.
func deriveKey(shared []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, shared, nil, []byte("bcr-ebill/payload"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("ecies: derive key: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext for recipientPub using a fresh ephemeral
// keypair, and returns the base58-encoded wire form:
// ephemeral_pubkey(33) || nonce(24) || ciphertext.
func Encrypt(plaintext []byte, recipientPub *btcec.PublicKey) (string, error) {
	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return "", fmt.Errorf("ecies: ephemeral key: %w", err)
	}

	shared := btcec.GenerateSharedSecret(ephemeral, recipientPub)
	key, err := deriveKey(shared)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("ecies: new aead: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("ecies: nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, compressedPubKeyLen+nonceLen+len(ciphertext))
	out = append(out, ephemeral.PubKey().SerializeCompressed()...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	return base58.Encode(out), nil
}

// Decrypt reverses Encrypt given the recipient's private key.
func Decrypt(data string, recipientPriv *btcec.PrivateKey) ([]byte, error) {
	raw := base58.Decode(data)
	if len(raw) < compressedPubKeyLen+nonceLen {
		return nil, ErrCiphertextTooShort
	}

	ephemeralPub, err := btcec.ParsePubKey(raw[:compressedPubKeyLen])
	if err != nil {
		return nil, fmt.Errorf("ecies: parse ephemeral key: %w", err)
	}
	nonce := raw[compressedPubKeyLen : compressedPubKeyLen+nonceLen]
	ciphertext := raw[compressedPubKeyLen+nonceLen:]

	shared := btcec.GenerateSharedSecret(recipientPriv, ephemeralPub)
	key, err := deriveKey(shared)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("ecies: new aead: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ecies: decrypt: %w", err)
	}
	return plaintext, nil
}
