// Package blockchain defines the generic block-chain contract shared by the
// bill, identity and company chains: a typed, versioned, signed record
// format plus the validation and traversal operations every chain supports.
// Each concrete chain (blockchain/bill, blockchain/identity,
// blockchain/company) instantiates Chain with its own block type and op-code
// enum.
package blockchain

import "github.com/btcsuite/btclog"

// Block is the subset of a chain record's behaviour the generic chain
// machinery needs: identity, ordering, and standalone validation. Concrete
// block types (bill, identity, company) implement this alongside their own
// op-specific payload accessors.
type Block[OpCode comparable] interface {
	BlockID() uint64
	BlockTimestamp() uint64
	BlockOpCode() OpCode
	BlockHash() string
	PreviousBlockHash() string

	// ValidateHash recomputes the block's hash from its own fields and
	// reports whether it matches BlockHash().
	ValidateHash() bool

	// VerifySignature checks the detached signature against the block's
	// signer public key.
	VerifySignature() bool
}

// ValidateWithPrevious checks that b is a legal successor of prev: correct
// id sequence, correct previous-hash back-reference, a self-consistent
// hash, and a verifying signature. This is spec.md §4.1's
// "Validation with a previous block".
func ValidateWithPrevious[O comparable, B Block[O]](b, prev B) bool {
	if b.PreviousBlockHash() != prev.BlockHash() {
		log.Warnf("block %d: previous hash mismatch", b.BlockID())
		return false
	}
	if b.BlockID() != prev.BlockID()+1 {
		log.Warnf("block %d: not the successor of block %d", b.BlockID(), prev.BlockID())
		return false
	}
	if !b.ValidateHash() {
		log.Warnf("block %d: hash does not recompute", b.BlockID())
		return false
	}
	if !b.VerifySignature() {
		log.Warnf("block %d: signature does not verify", b.BlockID())
		return false
	}
	return true
}

// Chain is a non-empty, ordered, append-only sequence of blocks. The zero
// value is not usable; construct with NewChain.
type Chain[O comparable, B Block[O]] struct {
	blocks []B
}

// NewChain starts a chain from its genesis block.
func NewChain[O comparable, B Block[O]](genesis B) *Chain[O, B] {
	return &Chain[O, B]{blocks: []B{genesis}}
}

// FromBlocks reconstructs a chain from blocks already known to be in order,
// e.g. when loading from a store. It does not itself validate the chain;
// call IsValid if that has not already been established.
func FromBlocks[O comparable, B Block[O]](blocks []B) *Chain[O, B] {
	return &Chain[O, B]{blocks: blocks}
}

// Blocks returns the chain's blocks in ascending id order.
func (c *Chain[O, B]) Blocks() []B {
	return c.blocks
}

// Height returns the number of blocks in the chain.
func (c *Chain[O, B]) Height() int {
	return len(c.blocks)
}

// GetLatestBlock returns the chain's tail.
func (c *Chain[O, B]) GetLatestBlock() B {
	return c.blocks[len(c.blocks)-1]
}

// GetFirstBlock returns the chain's genesis block.
func (c *Chain[O, B]) GetFirstBlock() B {
	return c.blocks[0]
}

// TryAddBlock appends b iff it validates against the current tail and the
// resulting chain stays valid. Returns whether the append happened.
func (c *Chain[O, B]) TryAddBlock(b B) bool {
	if !ValidateWithPrevious[O, B](b, c.GetLatestBlock()) {
		return false
	}
	c.blocks = append(c.blocks, b)
	return true
}

// IsValid reduces ValidateWithPrevious pairwise over the whole chain,
// starting at index 1 (the genesis block has no predecessor to check).
func (c *Chain[O, B]) IsValid() bool {
	for i := 1; i < len(c.blocks); i++ {
		if !ValidateWithPrevious[O, B](c.blocks[i], c.blocks[i-1]) {
			return false
		}
	}
	return true
}

// GetLastVersionBlockWithOpCode returns the most recent block with the
// given op code, or the zero value and false if none exists.
func (c *Chain[O, B]) GetLastVersionBlockWithOpCode(op O) (B, bool) {
	var zero B
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i].BlockOpCode() == op {
			return c.blocks[i], true
		}
	}
	return zero, false
}

// BlockWithOpCodeExists reports whether any block in the chain carries op.
func (c *Chain[O, B]) BlockWithOpCodeExists(op O) bool {
	for _, b := range c.blocks {
		if b.BlockOpCode() == op {
			return true
		}
	}
	return false
}

// GetBlockByID finds the block with the given id, if any.
func (c *Chain[O, B]) GetBlockByID(id uint64) (B, bool) {
	var zero B
	for _, b := range c.blocks {
		if b.BlockID() == id {
			return b, true
		}
	}
	return zero, false
}

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger, mirroring the teacher's
// per-subsystem UseLogger convention.
func UseLogger(logger btclog.Logger) {
	log = logger
}
