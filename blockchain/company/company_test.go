package company

import (
	"testing"

	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCreateRoundTrip(t *testing.T) {
	d := CreateBlockData{CompanyID: "company-1", Name: "Acme GmbH", Email: "office@acme.example", InitialSignatory: "node-1"}
	encoded, err := encodeCreate(d)
	require.NoError(t, err)
	got, err := decodeCreate(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestEncodeDecodeAddSignatoryRoundTrip(t *testing.T) {
	d := AddSignatoryBlockData{SignatoryNodeID: "node-2"}
	encoded, err := encodeAddSignatory(d)
	require.NoError(t, err)
	got, err := decodeAddSignatory(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestEncodeDecodeRemoveSignatoryRoundTrip(t *testing.T) {
	d := RemoveSignatoryBlockData{SignatoryNodeID: "node-2"}
	encoded, err := encodeRemoveSignatory(d)
	require.NoError(t, err)
	got, err := decodeRemoveSignatory(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestEncodeDecodeSignCompanyBillRoundTrip(t *testing.T) {
	d := SignCompanyBillBlockData{BillID: "bill-1", BlockID: 4, BlockHash: "hash-4", OperationCode: "Endorse", SignatoryNodeID: "node-2"}
	encoded, err := encodeSignCompanyBill(d)
	require.NoError(t, err)
	got, err := decodeSignCompanyBill(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func buildCompanyChain(t *testing.T) (*Chain, *keys.BcrKeys, string) {
	t.Helper()
	companyKeys, err := keys.Generate()
	require.NoError(t, err)
	initial, err := keys.Generate()
	require.NoError(t, err)

	genesis, err := NewCreateBlock(
		"company-1", "Acme GmbH", "office@acme.example", initial.PublicKeyHex(),
		1_731_593_928, companyKeys.PublicKey(), companyKeys,
	)
	require.NoError(t, err)
	return NewChain(genesis), companyKeys, initial.PublicKeyHex()
}

func TestNewChainStartsAtGenesisHeightOne(t *testing.T) {
	chain, _, _ := buildCompanyChain(t)
	require.Equal(t, 1, chain.Height())
	require.Equal(t, OpCreate, chain.GetLatestBlock().BlockOpCode())
}

func TestActiveSignatoriesIncludesInitialSignatoryFromGenesis(t *testing.T) {
	chain, companyKeys, initialNodeID := buildCompanyChain(t)
	active, err := chain.ActiveSignatories(companyKeys.PrivateKey())
	require.NoError(t, err)
	require.Equal(t, []string{initialNodeID}, active)
}

func TestActiveSignatoriesReflectsAddThenRemove(t *testing.T) {
	chain, companyKeys, initialNodeID := buildCompanyChain(t)
	genesis := chain.GetFirstBlock()

	second, err := keys.Generate()
	require.NoError(t, err)

	addBlock, err := NewAddSignatoryBlock(
		1, "company-1", second.PublicKeyHex(), 1_731_594_000, genesis.BlockHash(),
		companyKeys.PublicKey(), companyKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(addBlock))

	active, err := chain.ActiveSignatories(companyKeys.PrivateKey())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{initialNodeID, second.PublicKeyHex()}, active)

	removeBlock, err := NewRemoveSignatoryBlock(
		2, "company-1", initialNodeID, 1_731_594_100, addBlock.BlockHash(),
		companyKeys.PublicKey(), companyKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(removeBlock))

	active, err = chain.ActiveSignatories(companyKeys.PrivateKey())
	require.NoError(t, err)
	require.Equal(t, []string{second.PublicKeyHex()}, active)
}

func TestActiveSignatoriesAllowsReAddingARemovedSignatory(t *testing.T) {
	chain, companyKeys, initialNodeID := buildCompanyChain(t)
	genesis := chain.GetFirstBlock()

	removeBlock, err := NewRemoveSignatoryBlock(
		1, "company-1", initialNodeID, 1_731_594_000, genesis.BlockHash(),
		companyKeys.PublicKey(), companyKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(removeBlock))

	active, err := chain.ActiveSignatories(companyKeys.PrivateKey())
	require.NoError(t, err)
	require.Empty(t, active)

	reAddBlock, err := NewAddSignatoryBlock(
		2, "company-1", initialNodeID, 1_731_594_100, removeBlock.BlockHash(),
		companyKeys.PublicKey(), companyKeys,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(reAddBlock))

	active, err = chain.ActiveSignatories(companyKeys.PrivateKey())
	require.NoError(t, err)
	require.Equal(t, []string{initialNodeID}, active)
}

func TestChainAcceptsSignCompanyBillLink(t *testing.T) {
	chain, companyKeys, _ := buildCompanyChain(t)
	genesis := chain.GetFirstBlock()

	signatory, err := keys.Generate()
	require.NoError(t, err)

	link, err := NewSignCompanyBillBlock(
		1, "company-1", "bill-1", 2, "bill-hash-2", "Endorse",
		1_731_594_000, genesis.BlockHash(), companyKeys.PublicKey(), signatory,
	)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(link))
	require.Equal(t, 2, chain.Height())
}

func TestChainRejectsLinkWithBadPreviousHash(t *testing.T) {
	chain, companyKeys, _ := buildCompanyChain(t)
	signatory, err := keys.Generate()
	require.NoError(t, err)

	link, err := NewSignCompanyBillBlock(
		1, "company-1", "bill-1", 2, "bill-hash-2", "Endorse",
		1_731_594_000, "not-the-genesis-hash", companyKeys.PublicKey(), signatory,
	)
	require.NoError(t, err)
	require.False(t, chain.TryAddBlock(link))
	require.Equal(t, 1, chain.Height())
}

func TestDecodeSignCompanyBillExportedHelperMatchesInternal(t *testing.T) {
	d := SignCompanyBillBlockData{BillID: "bill-9", BlockID: 9, BlockHash: "hash-9", OperationCode: "Mint", SignatoryNodeID: "node-9"}
	encoded, err := encodeSignCompanyBill(d)
	require.NoError(t, err)
	got, err := DecodeSignCompanyBill(encoded)
	require.NoError(t, err)
	require.Equal(t, d, got)
}
