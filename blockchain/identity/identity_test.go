package identity

import (
	"testing"

	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCreateRoundTrip(t *testing.T) {
	d := CreateBlockData{NodeID: "node-1", Name: "Alice", Email: "alice@example.com"}
	encoded, err := encodeCreate(d)
	require.NoError(t, err)
	got, err := decodeCreate(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestEncodeDecodeSignPersonBillRoundTrip(t *testing.T) {
	d := SignPersonBillBlockData{BillID: "bill-1", BlockID: 3, BlockHash: "hash-3", OperationCode: "Accept"}
	encoded, err := encodeSignPersonBill(d)
	require.NoError(t, err)
	got, err := decodeSignPersonBill(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestEncodeDecodeSignCompanyBillRoundTrip(t *testing.T) {
	d := SignCompanyBillBlockData{CompanyID: "company-1", BillID: "bill-1", BlockID: 2, BlockHash: "hash-2", OperationCode: "Endorse"}
	encoded, err := encodeSignCompanyBill(d)
	require.NoError(t, err)
	got, err := decodeSignCompanyBill(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestDecodeBillIDRejectsNonLinkOpCode(t *testing.T) {
	_, err := decodeBillID(OpCreate, []byte{})
	require.Error(t, err)
}

func buildIdentityChain(t *testing.T) (*Chain, *keys.BcrKeys) {
	t.Helper()
	ownerKeys, err := keys.Generate()
	require.NoError(t, err)
	genesis, err := NewCreateBlock(ownerKeys.PublicKeyHex(), "Alice", "alice@example.com", 1_731_593_928, ownerKeys.PublicKey(), ownerKeys)
	require.NoError(t, err)
	return NewChain(genesis), ownerKeys
}

func TestNewChainStartsAtGenesisHeightOne(t *testing.T) {
	chain, _ := buildIdentityChain(t)
	require.Equal(t, 1, chain.Height())
	require.Equal(t, OpCreate, chain.GetLatestBlock().BlockOpCode())
}

func TestChainAcceptsSignPersonBillLink(t *testing.T) {
	chain, ownerKeys := buildIdentityChain(t)
	genesis := chain.GetFirstBlock()

	link, err := NewSignPersonBillBlock(
		1, ownerKeys.PublicKeyHex(), "bill-1", 1, "bill-hash-1", "Issue",
		1_731_594_000, genesis.BlockHash(), ownerKeys.PublicKey(), ownerKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(link))
	require.Equal(t, 2, chain.Height())
}

func TestChainRejectsLinkWithBadPreviousHash(t *testing.T) {
	chain, ownerKeys := buildIdentityChain(t)

	link, err := NewSignPersonBillBlock(
		1, ownerKeys.PublicKeyHex(), "bill-1", 1, "bill-hash-1", "Issue",
		1_731_594_000, "not-the-genesis-hash", ownerKeys.PublicKey(), ownerKeys,
	)
	require.NoError(t, err)
	require.False(t, chain.TryAddBlock(link))
	require.Equal(t, 1, chain.Height())
}

func TestBillsSignedForReturnsEachBillOnceAcrossLinkKinds(t *testing.T) {
	chain, ownerKeys := buildIdentityChain(t)
	genesis := chain.GetFirstBlock()

	link1, err := NewSignPersonBillBlock(
		1, ownerKeys.PublicKeyHex(), "bill-1", 1, "hash-1", "Issue",
		1_731_594_000, genesis.BlockHash(), ownerKeys.PublicKey(), ownerKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(link1))

	link2, err := NewSignCompanyBillBlock(
		2, ownerKeys.PublicKeyHex(), "company-1", "bill-1", 2, "hash-2", "Endorse",
		1_731_594_100, link1.BlockHash(), ownerKeys.PublicKey(), ownerKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(link2))

	link3, err := NewSignPersonBillBlock(
		3, ownerKeys.PublicKeyHex(), "bill-2", 1, "hash-3", "Issue",
		1_731_594_200, link2.BlockHash(), ownerKeys.PublicKey(), ownerKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(link3))

	ids, err := chain.BillsSignedFor(ownerKeys.PrivateKey())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bill-1", "bill-2"}, ids)
}

func TestDecodeSignPersonBillExportedHelperMatchesInternal(t *testing.T) {
	d := SignPersonBillBlockData{BillID: "bill-9", BlockID: 9, BlockHash: "hash-9", OperationCode: "Mint"}
	encoded, err := encodeSignPersonBill(d)
	require.NoError(t, err)
	got, err := DecodeSignPersonBill(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}
