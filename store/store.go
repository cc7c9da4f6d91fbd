// Package store defines the persistence façades billservice depends on.
// Each is a narrow interface so the engine never assumes a storage engine;
// boltstore provides the concrete bbolt-backed implementation.
package store

import (
	"context"
	"errors"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
)

// ErrChainNotFound is returned by ChainStore, IdentityChainStore and
// CompanyChainStore implementations when the requested chain has never been
// saved.
var ErrChainNotFound = errors.New("store: chain not found")

// ChainStore persists and retrieves bill chains.
type ChainStore interface {
	GetChain(ctx context.Context, billID string) (*bill.Chain, error)
	SaveChain(ctx context.Context, billID string, chain *bill.Chain) error
	ChainExists(ctx context.Context, billID string) (bool, error)
	AllBillIDs(ctx context.Context) ([]string, error)
}

// KeyStore persists the secp256k1 keypair for every bill this node knows
// the private key for (drawer, payee, or any later holder who received it).
type KeyStore interface {
	GetKeys(ctx context.Context, billID string) (*bill.Keys, error)
	SaveKeys(ctx context.Context, billID string, keys *bill.Keys) error
}

// IdentityChainStore persists the local node's own identity chain.
type IdentityChainStore interface {
	GetIdentityChain(ctx context.Context) (*identity.Chain, error)
	SaveIdentityChain(ctx context.Context, chain *identity.Chain) error
}

// IdentityKeyStore exposes the local node's own secp256k1 signing key: the
// one that produces every block's detached signature, whether the node is
// acting for itself or for a company it signs for.
type IdentityKeyStore interface {
	GetIdentityPrivateKeyHex(ctx context.Context) (string, error)
}

// CompanyChainStore persists the chains of companies this node is a
// signatory for.
type CompanyChainStore interface {
	GetCompanyChain(ctx context.Context, companyID string) (*company.Chain, error)
	SaveCompanyChain(ctx context.Context, companyID string, chain *company.Chain) error
	AllCompanyIDs(ctx context.Context) ([]string, error)
}

// CompanyKeyStore exposes a company's own secp256k1 private key, to whatever
// signatories were trusted with it at company creation time — this is what
// lets a signatory decrypt the company's own chain (e.g. to list active
// signatories, or to check a cross-chain link for idempotency) even though
// every individual bill/identity block the company signs is still signed
// with the human signatory's own key, never the company's.
type CompanyKeyStore interface {
	GetCompanyPrivateKeyHex(ctx context.Context, companyID string) (string, error)
}

// NotificationStore records which (bill, block height, action) timeout
// notifications have already fired, so the timeout engine never re-sends
// one after a restart.
type NotificationStore interface {
	WasSent(ctx context.Context, billID string, blockHeight int, action string) (bool, error)
	MarkSent(ctx context.Context, billID string, blockHeight int, action string) error
}

// PaidStore records which bitcoin payment addresses have already been
// observed paid, so the payment reconciler's sweeps are idempotent across
// restarts even before the corresponding Sell/Recourse block lands.
type PaidStore interface {
	IsPaid(ctx context.Context, address string) (bool, error)
	MarkPaid(ctx context.Context, address string) error
}

// Contact is the minimal directory information the engine needs about a
// node id to address a notification or display a participant: there is no
// rich contact-book feature here, just enough to resolve a node id to a
// display name and transport address.
type Contact struct {
	NodeID     string
	Name       string
	NostrRelay string
}

// ContactResolver looks up what's known locally about a node id.
type ContactResolver interface {
	Resolve(ctx context.Context, nodeID string) (*Contact, error)
}
