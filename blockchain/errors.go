package blockchain

import "errors"

// Errors stemming from interacting with a chain, its blocks, or the
// cryptography underneath it. Mirrors channeldb/error.go's flat sentinel
// style rather than a wrapped error tree, since callers branch on these by
// identity (errors.Is), not by inspecting structured fields.
var (
	// ErrBlockchainInvalid is returned when a chain fails IsValid after an
	// append was attempted.
	ErrBlockchainInvalid = errors.New("blockchain: chain is invalid")

	// ErrBlockchainParse is returned when stored block bytes cannot be
	// decoded back into a block.
	ErrBlockchainParse = errors.New("blockchain: unable to parse block")

	// ErrInvalidBlockData is returned when a decrypted payload is
	// structurally inconsistent with the block it came from, e.g. a
	// signing_timestamp that does not match the block's timestamp.
	ErrInvalidBlockData = errors.New("blockchain: invalid block data")

	// ErrSignatureInvalid is returned when a detached signature does not
	// verify against the claimed signer.
	ErrSignatureInvalid = errors.New("blockchain: signature invalid")
)
