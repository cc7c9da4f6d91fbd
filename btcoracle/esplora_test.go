package btcoracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/stretchr/testify/require"
)

func TestCheckIfPaidSumsConfirmedAndMempoolFunding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"address": "bc1qtest",
			"chain_stats": {"funded_txo_sum": 700, "spent_txo_sum": 0, "tx_count": 1},
			"mempool_stats": {"funded_txo_sum": 300, "spent_txo_sum": 0, "tx_count": 1}
		}`))
	}))
	defer srv.Close()

	o := NewEsploraOracle(srv.URL, "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)

	paid, received, err := o.CheckIfPaid(context.Background(), "bc1qtest", 1000)
	require.NoError(t, err)
	require.True(t, paid)
	require.Equal(t, uint64(1000), received)

	paid, received, err = o.CheckIfPaid(context.Background(), "bc1qtest", 1001)
	require.NoError(t, err)
	require.False(t, paid)
	require.Equal(t, uint64(1000), received)
}

func TestCheckIfPaidPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewEsploraOracle(srv.URL, "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)
	_, _, err := o.CheckIfPaid(context.Background(), "bc1qtest", 1000)
	require.Error(t, err)
}

func TestGetAddressToPayIsDeterministicAndOrderIndependent(t *testing.T) {
	o := NewEsploraOracle("https://esplora.example", "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)

	billKeys, err := keys.Generate()
	require.NoError(t, err)
	holderKeys, err := keys.Generate()
	require.NoError(t, err)

	addr1, err := o.GetAddressToPay(billKeys.PublicKey(), holderKeys.PublicKey())
	require.NoError(t, err)
	addr2, err := o.GetAddressToPay(holderKeys.PublicKey(), billKeys.PublicKey())
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}

func TestGetCombinedPrivateKeySpendsGetAddressToPay(t *testing.T) {
	o := NewEsploraOracle("https://esplora.example", "https://explorer.example", &chaincfg.RegressionNetParams, 5*time.Second)

	billKeys, err := keys.Generate()
	require.NoError(t, err)
	holderKeys, err := keys.Generate()
	require.NoError(t, err)

	addr, err := o.GetAddressToPay(billKeys.PublicKey(), holderKeys.PublicKey())
	require.NoError(t, err)

	combinedPriv, err := o.GetCombinedPrivateKey(billKeys.PrivateKey(), holderKeys.PrivateKey())
	require.NoError(t, err)

	// The combined private key's own public key must equal the direct
	// combination of the two halves' public keys: that's what lets the
	// holder sweep GetAddressToPay's output once paid.
	combinedPub, err := keys.CombinePublicKeys(billKeys.PublicKey(), holderKeys.PublicKey())
	require.NoError(t, err)
	require.Equal(t, combinedPub.SerializeCompressed(), combinedPriv.PubKey().SerializeCompressed())
	require.NotEmpty(t, addr)
}

func TestGenerateLinkToPayEncodesAmountAndMessage(t *testing.T) {
	o := NewEsploraOracle("https://esplora.example", "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)
	link := o.GenerateLinkToPay("bc1qtest", 150_000_000, "bill payment")
	require.Equal(t, "bitcoin:bc1qtest?amount=1.50000000&message=bill+payment", link)
}

func TestGenerateLinkToPayOmitsMessageWhenEmpty(t *testing.T) {
	o := NewEsploraOracle("https://esplora.example", "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)
	link := o.GenerateLinkToPay("bc1qtest", 100_000_000, "")
	require.Equal(t, "bitcoin:bc1qtest?amount=1.00000000", link)
}

func TestGetMempoolLinkForAddressUsesExplorerBaseURL(t *testing.T) {
	o := NewEsploraOracle("https://esplora.example", "https://explorer.example", &chaincfg.MainNetParams, 5*time.Second)
	require.Equal(t, "https://explorer.example/address/bc1qtest", o.GetMempoolLinkForAddress("bc1qtest"))
}
