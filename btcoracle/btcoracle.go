// Package btcoracle watches bitcoin addresses for payment and derives the
// joint payment addresses a bill's offer-to-sell and recourse flows settle
// against. Grounded on external/bitcoin.rs: an Esplora REST client for
// on-chain observation, P2PKH address derivation for payment targets, and
// "bitcoin:" URI generation for payment requests.
package btcoracle

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Oracle is everything billservice's payment reconciler and offer/recourse
// flows need from the bitcoin layer.
type Oracle interface {
	// CheckIfPaid reports whether address has received at least
	// expectedSatoshis (confirmed or in the mempool), and how much it has
	// actually received.
	CheckIfPaid(ctx context.Context, address string, expectedSatoshis uint64) (paid bool, received uint64, err error)

	// GetAddressToPay derives the P2PKH address a buyer or recoursee must
	// pay: the combination of the bill's own key and the current
	// holder's key, so only the two of them together can ever spend it.
	GetAddressToPay(billPub, holderPub *btcec.PublicKey) (string, error)

	// GetCombinedPrivateKey derives the private key that spends
	// GetAddressToPay's output, for the holder to sweep funds once paid.
	GetCombinedPrivateKey(billPriv, holderPriv *btcec.PrivateKey) (*btcec.PrivateKey, error)

	// GenerateLinkToPay builds a "bitcoin:" URI a wallet can open
	// directly to pay address the given amount.
	GenerateLinkToPay(address string, satoshis uint64, message string) string

	// GetMempoolLinkForAddress builds a block-explorer URL for address,
	// for a human to check payment status themselves.
	GetMempoolLinkForAddress(address string) string
}
