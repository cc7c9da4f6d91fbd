// Package keys wraps secp256k1 keypairs the way the bill engine needs them:
// generation, hex (de)serialization, node-id derivation, detached signing
// and verification over block hashes, and the EC point/scalar "combine"
// operation used to derive joint payment addresses and aggregate company
// signatures.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// ErrInvalidSignature is returned when a detached signature does not verify
// against the claimed public key.
var ErrInvalidSignature = errors.New("keys: signature does not verify")

// BcrKeys is a secp256k1 keypair. The public key, hex-encoded and
// compressed, doubles as a node id throughout the engine.
type BcrKeys struct {
	priv *btcec.PrivateKey
	pub  *btcec.PublicKey
}

// Generate creates a fresh random keypair, e.g. for a newly issued bill.
func Generate() (*BcrKeys, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &BcrKeys{priv: priv, pub: priv.PubKey()}, nil
}

// FromPrivateKeyHex reconstructs a keypair from a hex-encoded private key.
func FromPrivateKeyHex(privHex string) (*BcrKeys, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, fmt.Errorf("keys: decode private key: %w", err)
	}
	priv, pub := btcec.PrivKeyFromBytes(raw)
	return &BcrKeys{priv: priv, pub: pub}, nil
}

// FromPublicKeyHex reconstructs a public-key-only handle, e.g. for
// verifying a counterparty's signature or encrypting to their node id.
func FromPublicKeyHex(pubHex string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, fmt.Errorf("keys: decode public key: %w", err)
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("keys: parse public key: %w", err)
	}
	return pub, nil
}

// PrivateKeyHex returns the hex-encoded private key scalar.
func (k *BcrKeys) PrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// PublicKeyHex returns the hex-encoded compressed public key. This value is
// used as the node id for persons and companies, and as the bill id source
// once hashed (see ecies.Sha256Base58).
func (k *BcrKeys) PublicKeyHex() string {
	return hex.EncodeToString(k.pub.SerializeCompressed())
}

// PrivateKey exposes the underlying private key for ECDH/combine use.
func (k *BcrKeys) PrivateKey() *btcec.PrivateKey { return k.priv }

// PublicKey exposes the underlying public key for ECDH/combine use.
func (k *BcrKeys) PublicKey() *btcec.PublicKey { return k.pub }

// Sign produces a detached DER signature over a hash (32 bytes, as produced
// by ecies.Sha256). Blocks store the signature separately from the
// payload so a verifier never needs to decrypt the payload to check
// authenticity.
func (k *BcrKeys) Sign(hash []byte) []byte {
	sig := ecdsa.Sign(k.priv, hash)
	return sig.Serialize()
}

// Verify checks a detached DER signature over hash against pubKeyHex.
func Verify(pubKeyHex string, hash, sig []byte) error {
	pub, err := FromPublicKeyHex(pubKeyHex)
	if err != nil {
		return err
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("keys: parse signature: %w", err)
	}
	if !parsed.Verify(hash, pub) {
		return ErrInvalidSignature
	}
	return nil
}
