package btcoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btclog"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// stats mirrors Esplora's chain_stats/mempool_stats shape: the funded and
// spent totals for an address, confirmed and unconfirmed.
type stats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int   `json:"tx_count"`
}

// addressInfo mirrors Esplora's GET /address/:address response.
type addressInfo struct {
	Address      string `json:"address"`
	ChainStats   stats  `json:"chain_stats"`
	MempoolStats stats  `json:"mempool_stats"`
}

// EsploraOracle implements Oracle against a real or self-hosted Esplora
// instance (blockstream.info, mempool.space, or a private node running the
// same API).
type EsploraOracle struct {
	BaseURL     string
	Network     *chaincfg.Params
	HTTPClient  *http.Client
	ExplorerURL string // human-facing block explorer, for GetMempoolLinkForAddress
}

// NewEsploraOracle returns an oracle hitting baseURL's Esplora REST API.
func NewEsploraOracle(baseURL, explorerURL string, network *chaincfg.Params, timeout time.Duration) *EsploraOracle {
	return &EsploraOracle{
		BaseURL:     baseURL,
		ExplorerURL: explorerURL,
		Network:     network,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

func (o *EsploraOracle) fetchAddressInfo(ctx context.Context, address string) (*addressInfo, error) {
	u := fmt.Sprintf("%s/address/%s", o.BaseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("btcoracle: build request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("btcoracle: fetch address info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("btcoracle: esplora returned %s for %s", resp.Status, address)
	}
	var info addressInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("btcoracle: decode address info: %w", err)
	}
	return &info, nil
}

// CheckIfPaid sums confirmed and mempool funded outputs for address and
// compares against expectedSatoshis. An address can receive in more than
// one payment (e.g. a buyer topping up a short payment), so this checks
// the cumulative total rather than any single transaction.
func (o *EsploraOracle) CheckIfPaid(ctx context.Context, address string, expectedSatoshis uint64) (bool, uint64, error) {
	info, err := o.fetchAddressInfo(ctx, address)
	if err != nil {
		return false, 0, err
	}
	received := info.ChainStats.FundedTxoSum + info.MempoolStats.FundedTxoSum
	if received < 0 {
		received = 0
	}
	return uint64(received) >= expectedSatoshis, uint64(received), nil
}

// GetAddressToPay combines the bill's and the holder's public keys into a
// single point and derives its P2PKH address: a payment only the two of
// them jointly control spending from.
func (o *EsploraOracle) GetAddressToPay(billPub, holderPub *btcec.PublicKey) (string, error) {
	combined, err := keys.CombinePublicKeys(billPub, holderPub)
	if err != nil {
		return "", fmt.Errorf("btcoracle: combine public keys: %w", err)
	}
	pkHash := btcutil.Hash160(combined.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, o.Network)
	if err != nil {
		return "", fmt.Errorf("btcoracle: derive address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// GetCombinedPrivateKey derives the private key that spends
// GetAddressToPay's output.
func (o *EsploraOracle) GetCombinedPrivateKey(billPriv, holderPriv *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	return keys.CombinePrivateKeys(billPriv, holderPriv), nil
}

// GenerateLinkToPay builds a BIP-21 "bitcoin:" URI. Amounts are expressed
// in whole BTC with up to 8 decimal places, per the BIP-21 convention.
func (o *EsploraOracle) GenerateLinkToPay(address string, satoshis uint64, message string) string {
	btc := float64(satoshis) / float64(billSatToBTCRate)
	u := url.URL{
		Scheme: "bitcoin",
		Opaque: address,
	}
	q := url.Values{}
	q.Set("amount", fmt.Sprintf("%.8f", btc))
	if message != "" {
		q.Set("message", message)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// GetMempoolLinkForAddress builds a human-facing block explorer URL.
func (o *EsploraOracle) GetMempoolLinkForAddress(address string) string {
	return fmt.Sprintf("%s/address/%s", o.ExplorerURL, address)
}

// billSatToBTCRate mirrors billservice.SatToBTCRate without importing
// billservice, which would create an import cycle (billservice imports
// btcoracle for the Oracle interface).
const billSatToBTCRate = 100_000_000
