package billservice

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/ecies"
)

// EncryptFile validates a would-be bill attachment against the fixed size,
// name-length and mime-type limits and, if it passes, hashes the plaintext
// (the user-visible integrity token) and encrypts it under the bill's own
// public key. The caller owns getting plaintext off the wire; this package
// never touches an upload transport.
func EncryptFile(plaintext []byte, name, mimeType string, billPub *btcec.PublicKey) (*bill.File, error) {
	if len(plaintext) > MaxFileSizeBytes {
		return nil, ErrFileTooLarge
	}
	if len(name) > MaxFileNameCharacters {
		return nil, ErrFileNameTooLong
	}
	if !ValidFileMimeTypes[mimeType] {
		return nil, ErrInvalidMimeType
	}

	hash := ecies.HashFile(plaintext)
	ciphertext, err := ecies.Encrypt(plaintext, billPub)
	if err != nil {
		return nil, fmt.Errorf("billservice: encrypt file %q: %w", name, err)
	}
	return &bill.File{Name: name, MimeType: mimeType, Hash: hash, EncryptedData: ciphertext}, nil
}

// DecryptFile recovers an attachment's plaintext and confirms it still
// hashes to the value recorded at encryption time.
func DecryptFile(f bill.File, billPriv *btcec.PrivateKey) ([]byte, error) {
	plaintext, err := ecies.Decrypt(f.EncryptedData, billPriv)
	if err != nil {
		return nil, fmt.Errorf("billservice: decrypt file %q: %w", f.Name, err)
	}
	if ecies.HashFile(plaintext) != f.Hash {
		return nil, fmt.Errorf("billservice: file %q hash mismatch after decryption", f.Name)
	}
	return plaintext, nil
}
