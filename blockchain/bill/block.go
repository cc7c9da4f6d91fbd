package bill

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// Block is one link in a bill's append-only chain: an op-coded, encrypted,
// signed record of a single life-cycle action. It satisfies
// blockchain.Block[OpCode], so the generic blockchain.Chain machinery can
// validate and traverse it without knowing bill semantics.
type Block struct {
	ID                uint64
	BillID            string
	Op                OpCode
	Timestamp         uint64
	Data              string // base58 ECIES ciphertext of the encoded payload
	PreviousHash      string
	Hash              string
	SignatoryNodeID   string // pubkey hex of whoever produced the signature
	Signature         string // hex-encoded detached signature over Hash
}

func (b *Block) BlockID() uint64            { return b.ID }
func (b *Block) BlockTimestamp() uint64     { return b.Timestamp }
func (b *Block) BlockOpCode() OpCode        { return b.Op }
func (b *Block) BlockHash() string          { return b.Hash }
func (b *Block) PreviousBlockHash() string  { return b.PreviousHash }

// computeHash reproduces the content hash covering every field except the
// signature itself, matching the Rust block's hashing scheme of hashing the
// block sans signature (blocks.rs).
func (b *Block) computeHash() string {
	content := fmt.Sprintf("%d|%s|%s|%d|%s|%s|%s",
		b.ID, b.BillID, b.Op, b.Timestamp, b.Data, b.PreviousHash, b.SignatoryNodeID)
	return ecies.Sha256Base58([]byte(content))
}

// ValidateHash reports whether Hash matches a fresh recomputation.
func (b *Block) ValidateHash() bool {
	return b.Hash == b.computeHash()
}

// VerifySignature checks Signature against SignatoryNodeID over Hash.
func (b *Block) VerifySignature() bool {
	sig, err := hex.DecodeString(b.Signature)
	if err != nil {
		return false
	}
	return keys.Verify(b.SignatoryNodeID, signableDigest(b.Hash), sig) == nil
}

// signableDigest turns the block's base58 content hash into the fixed-width
// bytes that actually get signed: the base58 text is itself re-hashed with
// SHA-256, since ECDSA signs a 32-byte digest, not variable-length text.
func signableDigest(hash string) []byte {
	return ecies.Sha256([]byte(hash))
}

// NewBlock constructs, encrypts and signs the next block in a chain.
// payload is encrypted under billPub so only holders of the bill's private
// key (and, transitively, anyone the engine hands it to) can read history.
// signerKeys is whoever is actually producing the signature: the acting
// participant directly, or a company signatory acting on a company's
// behalf.
func NewBlock(
	id uint64,
	billID string,
	payload Payload,
	timestamp uint64,
	previousHash string,
	billPub *btcec.PublicKey,
	signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	ciphertext, err := ecies.Encrypt(encoded, billPub)
	if err != nil {
		return nil, fmt.Errorf("bill: encrypt block payload: %w", err)
	}

	b := &Block{
		ID:              id,
		BillID:          billID,
		Op:              payload.OpCode(),
		Timestamp:       timestamp,
		Data:            ciphertext,
		PreviousHash:    previousHash,
		SignatoryNodeID: signerKeys.PublicKeyHex(),
	}
	b.Hash = b.computeHash()
	b.Signature = hex.EncodeToString(signerKeys.Sign(signableDigest(b.Hash)))

	return b, nil
}

// DecryptPayload decrypts and decodes the block's payload with the bill's
// private key.
func (b *Block) DecryptPayload(billPriv *btcec.PrivateKey) (Payload, error) {
	plaintext, err := ecies.Decrypt(b.Data, billPriv)
	if err != nil {
		return nil, fmt.Errorf("bill: decrypt block %d: %w", b.ID, err)
	}
	return DecodePayload(b.Op, plaintext)
}
