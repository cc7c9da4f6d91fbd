// Package company implements a company's chain: its own lifecycle plus a
// SignCompanyBill link recorded whenever one of its signatories adds a
// block to a bill's chain on the company's behalf. Companies act only
// through signatories — there is no direct "the company signed" key, so
// every such block also carries which signatory node id actually produced
// the signature.
package company

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// OpCode identifies the kind of event recorded in a company's chain.
type OpCode string

const (
	// OpCreate is the genesis block: the company was established.
	OpCreate OpCode = "Create"
	// OpUpdate records a profile change.
	OpUpdate OpCode = "Update"
	// OpAddSignatory records a new person being authorized to sign for
	// the company.
	OpAddSignatory OpCode = "AddSignatory"
	// OpRemoveSignatory records a signatory's authorization being revoked.
	OpRemoveSignatory OpCode = "RemoveSignatory"
	// OpSignCompanyBill links to a bill block one of the company's
	// signatories added.
	OpSignCompanyBill OpCode = "SignCompanyBill"
)

// CreateBlockData is the genesis payload: the company as first
// established, with its initial signatory.
type CreateBlockData struct {
	CompanyID       string
	Name            string
	Email           string
	InitialSignatory string
}

// AddSignatoryBlockData records a signatory being added.
type AddSignatoryBlockData struct {
	SignatoryNodeID string
}

// RemoveSignatoryBlockData records a signatory being removed.
type RemoveSignatoryBlockData struct {
	SignatoryNodeID string
}

// SignCompanyBillBlockData links this company's chain to a block a
// signatory added to a bill's chain on the company's behalf.
type SignCompanyBillBlockData struct {
	BillID        string
	BlockID       uint64
	BlockHash     string
	OperationCode string
	SignatoryNodeID string
}

// Block is one link in a company's chain.
type Block struct {
	ID              uint64
	CompanyID       string
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
		b.ID, b.CompanyID, b.Op, b.Timestamp, b.Data, b.PreviousHash, b.SignatoryNodeID)
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

func newBlock(
	id uint64, companyID string, op OpCode, encoded []byte, timestamp uint64,
	previousHash string, companyPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	ciphertext, err := ecies.Encrypt(encoded, companyPub)
	if err != nil {
		return nil, fmt.Errorf("company: encrypt block payload: %w", err)
	}
	b := &Block{
		ID:              id,
		CompanyID:       companyID,
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

// NewCreateBlock builds the genesis block for a brand new company.
func NewCreateBlock(
	companyID, name, email, initialSignatory string, timestamp uint64,
	companyPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeCreate(CreateBlockData{
		CompanyID: companyID, Name: name, Email: email, InitialSignatory: initialSignatory,
	})
	if err != nil {
		return nil, err
	}
	return newBlock(0, companyID, OpCreate, encoded, timestamp, "", companyPub, signerKeys)
}

// NewSignCompanyBillBlock appends a link to billID/blockID/opCode, signed
// by signatoryKeys acting for the company.
func NewSignCompanyBillBlock(
	id uint64, companyID, billID string, billBlockID uint64, billBlockHash, billOpCode string,
	timestamp uint64, previousHash string, companyPub *btcec.PublicKey, signatoryKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeSignCompanyBill(SignCompanyBillBlockData{
		BillID: billID, BlockID: billBlockID, BlockHash: billBlockHash, OperationCode: billOpCode,
		SignatoryNodeID: signatoryKeys.PublicKeyHex(),
	})
	if err != nil {
		return nil, err
	}
	return newBlock(id, companyID, OpSignCompanyBill, encoded, timestamp, previousHash, companyPub, signatoryKeys)
}

// NewAddSignatoryBlock authorizes a new signatory to sign for the company.
func NewAddSignatoryBlock(
	id uint64, companyID, signatoryNodeID string, timestamp uint64, previousHash string,
	companyPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeAddSignatory(AddSignatoryBlockData{SignatoryNodeID: signatoryNodeID})
	if err != nil {
		return nil, err
	}
	return newBlock(id, companyID, OpAddSignatory, encoded, timestamp, previousHash, companyPub, signerKeys)
}

// NewRemoveSignatoryBlock revokes a signatory's authorization.
func NewRemoveSignatoryBlock(
	id uint64, companyID, signatoryNodeID string, timestamp uint64, previousHash string,
	companyPub *btcec.PublicKey, signerKeys *keys.BcrKeys,
) (*Block, error) {
	encoded, err := encodeRemoveSignatory(RemoveSignatoryBlockData{SignatoryNodeID: signatoryNodeID})
	if err != nil {
		return nil, err
	}
	return newBlock(id, companyID, OpRemoveSignatory, encoded, timestamp, previousHash, companyPub, signerKeys)
}

// Chain is a company's full chain.
type Chain struct {
	*blockchain.Chain[OpCode, *Block]
}

// NewChain starts a company chain from its genesis block.
func NewChain(genesis *Block) *Chain {
	return &Chain{blockchain.NewChain[OpCode, *Block](genesis)}
}

// FromBlocks reconstructs a chain from blocks already known to be in order.
func FromBlocks(blocks []*Block) *Chain {
	return &Chain{blockchain.FromBlocks[OpCode, *Block](blocks)}
}

// ActiveSignatories replays AddSignatory/RemoveSignatory blocks (plus the
// genesis's initial signatory) to report who may currently sign for the
// company.
func (c *Chain) ActiveSignatories(companyPriv *btcec.PrivateKey) ([]string, error) {
	active := make(map[string]bool)
	var order []string
	track := func(nodeID string, add bool) {
		if add {
			if !active[nodeID] {
				order = append(order, nodeID)
			}
			active[nodeID] = true
		} else {
			active[nodeID] = false
		}
	}

	for _, b := range c.Blocks() {
		plaintext, err := ecies.Decrypt(b.Data, companyPriv)
		if err != nil {
			return nil, fmt.Errorf("company: decrypt block %d: %w", b.ID, err)
		}
		switch b.Op {
		case OpCreate:
			d, err := decodeCreate(plaintext)
			if err != nil {
				return nil, err
			}
			track(d.InitialSignatory, true)
		case OpAddSignatory:
			d, err := decodeAddSignatory(plaintext)
			if err != nil {
				return nil, err
			}
			track(d.SignatoryNodeID, true)
		case OpRemoveSignatory:
			d, err := decodeRemoveSignatory(plaintext)
			if err != nil {
				return nil, err
			}
			track(d.SignatoryNodeID, false)
		}
	}

	result := make([]string, 0, len(order))
	for _, nodeID := range order {
		if active[nodeID] {
			result = append(result, nodeID)
		}
	}
	return result, nil
}
