// Package identity implements a person's own chain: the append-only record
// of their identity's lifecycle and, most importantly for the bill engine,
// a SignPersonBill link recorded every time they add a block to some bill's
// chain. This is how "what bills has this node touched" is answered without
// scanning every bill in the store.
package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// OpCode identifies the kind of event recorded in a person's identity
// chain.
type OpCode string

const (
	// OpCreate is the genesis block: the identity was established.
	OpCreate OpCode = "Create"
	// OpUpdate records a profile change (name, address, contact details).
	OpUpdate OpCode = "Update"
	// OpSignPersonBill links to a bill block this identity signed directly.
	OpSignPersonBill OpCode = "SignPersonBill"
	// OpSignCompanyBill links to a bill block this identity signed as a
	// company signatory.
	OpSignCompanyBill OpCode = "SignCompanyBill"
)

// CreateBlockData is the genesis payload: the identity as first
// established.
type CreateBlockData struct {
	NodeID  string
	Name    string
	Email   string
}

// UpdateBlockData records a later change to mutable profile fields.
type UpdateBlockData struct {
	Name  *string
	Email *string
}

// SignPersonBillBlockData links this identity's chain to a block it added
// directly (as itself, not on behalf of a company) to a bill's chain.
type SignPersonBillBlockData struct {
	BillID        string
	BlockID       uint64
	BlockHash     string
	OperationCode string
}

// SignCompanyBillBlockData links this identity's chain to a block it added
// to a bill's chain while acting as a signatory for CompanyID.
type SignCompanyBillBlockData struct {
	CompanyID     string
	BillID        string
	BlockID       uint64
	BlockHash     string
	OperationCode string
}

// Block is one link in a person's identity chain.
type Block struct {
	ID              uint64
	NodeID          string
	Op              OpCode
	Timestamp       uint64
	Data            string
	PreviousHash    string
	Hash            string
	SignatoryNodeID string
	Signature       string
}

func (b *Block) BlockID() uint64           { return b.ID }
func (b *Block) BlockTimestamp() uint64    { return b.Timestamp }
func (b *Block) BlockOpCode() OpCode       { return b.Op }
func (b *Block) BlockHash() string         { return b.Hash }
func (b *Block) PreviousBlockHash() string { return b.PreviousHash }

func (b *Block) computeHash() string {
	content := fmt.Sprintf("%d|%s|%s|%d|%s|%s|%s",
		b.ID, b.NodeID, b.Op, b.Timestamp, b.Data, b.PreviousHash, b.SignatoryNodeID)
	return ecies.Sha256Base58([]byte(content))
}

func (b *Block) ValidateHash() bool { return b.Hash == b.computeHash() }

func (b *Block) VerifySignature() bool {
	sig, err := hex.DecodeString(b.Signature)
	if err != nil {
		return false
	}
	return keys.Verify(b.SignatoryNodeID, ecies.Sha256([]byte(b.Hash)), sig) == nil
}

// newBlock encrypts data (a gob-free, manually-serialized payload; callers
// pass already-encoded bytes) under the identity's own public key and signs
// it with signerKeys.
func newBlock(
	id uint64, nodeID string, op OpCode, encoded []byte, timestamp uint64,
	previousHash string, ownerPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	ciphertext, err := ecies.Encrypt(encoded, ownerPub)
	if err != nil {
		return nil, fmt.Errorf("identity: encrypt block payload: %w", err)
	}
	b := &Block{
		ID:              id,
		NodeID:          nodeID,
		Op:              op,
		Timestamp:       timestamp,
		Data:            ciphertext,
		PreviousHash:    previousHash,
		SignatoryNodeID: signerKeys.PublicKeyHex(),
	}
	b.Hash = b.computeHash()
	b.Signature = hex.EncodeToString(signerKeys.Sign(ecies.Sha256([]byte(b.Hash))))
	return b, nil
}

// NewCreateBlock builds the genesis block for a brand new identity.
func NewCreateBlock(
	nodeID, name, email string, timestamp uint64, ownerPub *btcec.PublicKey, ownerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeCreate(CreateBlockData{NodeID: nodeID, Name: name, Email: email})
	if err != nil {
		return nil, err
	}
	return newBlock(0, nodeID, OpCreate, encoded, timestamp, "", ownerPub, ownerKeys)
}

// NewSignPersonBillBlock appends a link to billID/blockID/opCode at the
// head of the identity chain.
func NewSignPersonBillBlock(
	id uint64, nodeID, billID string, billBlockID uint64, billBlockHash, billOpCode string,
	timestamp uint64, previousHash string, ownerPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeSignPersonBill(SignPersonBillBlockData{
		BillID: billID, BlockID: billBlockID, BlockHash: billBlockHash, OperationCode: billOpCode,
	})
	if err != nil {
		return nil, err
	}
	return newBlock(id, nodeID, OpSignPersonBill, encoded, timestamp, previousHash, ownerPub, signerKeys)
}

// NewSignCompanyBillBlock appends a link to billID/blockID/opCode signed
// on behalf of companyID.
func NewSignCompanyBillBlock(
	id uint64, nodeID, companyID, billID string, billBlockID uint64, billBlockHash, billOpCode string,
	timestamp uint64, previousHash string, ownerPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeSignCompanyBill(SignCompanyBillBlockData{
		CompanyID: companyID, BillID: billID, BlockID: billBlockID, BlockHash: billBlockHash, OperationCode: billOpCode,
	})
	if err != nil {
		return nil, err
	}
	return newBlock(id, nodeID, OpSignCompanyBill, encoded, timestamp, previousHash, ownerPub, signerKeys)
}

// Chain is a person's full identity chain.
type Chain struct {
	*blockchain.Chain[OpCode, *Block]
}

// NewChain starts an identity chain from its genesis block.
func NewChain(genesis *Block) *Chain {
	return &Chain{blockchain.NewChain[OpCode, *Block](genesis)}
}

// FromBlocks reconstructs a chain from blocks already known to be in order.
func FromBlocks(blocks []*Block) *Chain {
	return &Chain{blockchain.FromBlocks[OpCode, *Block](blocks)}
}

// BillsSignedFor walks the chain and returns the bill ids this identity has
// ever added a block to, directly or as a company signatory.
func (c *Chain) BillsSignedFor(ownerPriv *btcec.PrivateKey) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, b := range c.Blocks() {
		if b.Op != OpSignPersonBill && b.Op != OpSignCompanyBill {
			continue
		}
		plaintext, err := ecies.Decrypt(b.Data, ownerPriv)
		if err != nil {
			return nil, fmt.Errorf("identity: decrypt block %d: %w", b.ID, err)
		}
		billID, err := decodeBillID(b.Op, plaintext)
		if err != nil {
			return nil, err
		}
		if !seen[billID] {
			seen[billID] = true
			ids = append(ids, billID)
		}
	}
	return ids, nil
}
