package bill

import (
	"testing"

	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/stretchr/testify/require"
)

func testParticipant(t *testing.T, name string) Participant {
	t.Helper()
	k, err := keys.Generate()
	require.NoError(t, err)
	return Participant{
		Type:   ParticipantPerson,
		NodeID: k.PublicKeyHex(),
		Name:   name,
		PostalAddress: PostalAddress{
			Country: "DE", City: "Berlin", ZIP: "10115", Address: "Torstrasse 1",
		},
		Email: name + "@example.com",
	}
}

func testBill(t *testing.T, id string, drawee, drawer, payee Participant) Bill {
	t.Helper()
	return Bill{
		ID:               id,
		CountryOfIssuing: "DE",
		CityOfIssuing:    "Berlin",
		Drawee:           drawee,
		Drawer:           drawer,
		Payee:            payee,
		Currency:         "SAT",
		Sum:              100_000,
		MaturityDate:     "2026-12-01",
		IssueDate:        "2026-07-30",
		CountryOfPayment: "DE",
		CityOfPayment:    "Berlin",
		Language:         "en",
	}
}

func TestIssuePayloadEncodeDecodeRoundTrip(t *testing.T) {
	drawee := testParticipant(t, "drawee")
	drawer := testParticipant(t, "drawer")
	payee := testParticipant(t, "payee")
	b := testBill(t, "bill-1", drawee, drawer, payee)

	original := &IssueBlockData{
		Bill: b,
		Signer: Signer{
			SigningTimestamp: 1_731_593_928,
		},
	}

	encoded, err := EncodePayload(original)
	require.NoError(t, err)

	decoded, err := DecodePayload(OpIssue, encoded)
	require.NoError(t, err)

	got, ok := decoded.(*IssueBlockData)
	require.True(t, ok)
	require.Equal(t, original.Bill, got.Bill)
	require.Equal(t, original.SigningTimestamp, got.SigningTimestamp)
}

func TestOfferToSellPayloadRoundTrip(t *testing.T) {
	seller := testParticipant(t, "seller")
	buyer := testParticipant(t, "buyer")

	original := &OfferToSellBlockData{
		Seller:         seller,
		Buyer:          buyer,
		Sum:            50_000,
		Currency:       "SAT",
		PaymentAddress: "bc1qexampleaddressxxxxxxxxxxxxxxxxxxxxxxxxxx",
		Signer:         Signer{SigningTimestamp: 1_731_593_928},
	}

	encoded, err := EncodePayload(original)
	require.NoError(t, err)
	decoded, err := DecodePayload(OpOfferToSell, encoded)
	require.NoError(t, err)

	got, ok := decoded.(*OfferToSellBlockData)
	require.True(t, ok)
	require.Equal(t, original.Seller, got.Seller)
	require.Equal(t, original.Buyer, got.Buyer)
	require.Equal(t, original.Sum, got.Sum)
	require.Equal(t, original.PaymentAddress, got.PaymentAddress)
}

func TestRejectVariantsDecodeWithOwnOpCode(t *testing.T) {
	rejecter := testParticipant(t, "rejecter")
	payload := &RejectBlockData{
		Rejecter: rejecter,
		Signer:   Signer{SigningTimestamp: 1_731_593_928},
	}

	for _, op := range []OpCode{OpRejectToAccept, OpRejectToPay, OpRejectToBuy, OpRejectToPayRecourse} {
		encoded, err := EncodePayload(wrapReject(op, *payload))
		require.NoError(t, err)

		decoded, err := DecodePayload(op, encoded)
		require.NoError(t, err)
		require.Equal(t, op, decoded.OpCode())
	}
}

func wrapReject(op OpCode, data RejectBlockData) Payload {
	switch op {
	case OpRejectToAccept:
		return &RejectToAcceptBlockData{data}
	case OpRejectToPay:
		return &RejectToPayBlockData{data}
	case OpRejectToBuy:
		return &RejectToBuyBlockData{data}
	default:
		return &RejectToPayRecourseBlockData{data}
	}
}

func TestDecodePayloadRejectsUnknownOpCode(t *testing.T) {
	_, err := DecodePayload(OpCode("NotARealOp"), []byte{})
	require.Error(t, err)
}

// buildChain constructs a two-block chain (Issue, then Accept) signed and
// encrypted under a freshly generated bill keypair, for chain-validation
// tests below.
func buildChain(t *testing.T) (*Chain, *testBillFixture) {
	t.Helper()
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	drawee := testParticipant(t, "drawee")
	drawer := testParticipant(t, "drawer")
	payee := testParticipant(t, "payee")
	b := testBill(t, "bill-1", drawee, drawer, payee)

	issuePayload := &IssueBlockData{
		Bill:   b,
		Signer: Signer{SigningTimestamp: 1_731_593_928},
	}
	genesis, err := NewBlock(1, b.ID, issuePayload, 1_731_593_928, "", billKeys.PublicKey(), billKeys)
	require.NoError(t, err)

	chain := NewChain(genesis)

	acceptPayload := &AcceptBlockData{
		Accepter: drawee,
		Signer:   Signer{SigningTimestamp: 1_731_594_000},
	}
	next, err := NewBlock(2, b.ID, acceptPayload, 1_731_594_000, genesis.BlockHash(), billKeys.PublicKey(), billKeys)
	require.NoError(t, err)

	return chain, &testBillFixture{
		chain: chain, next: next, billKeys: billKeys, bill: b, drawee: drawee,
	}
}

type testBillFixture struct {
	chain    *Chain
	next     *Block
	billKeys *keys.BcrKeys
	bill     Bill
	drawee   Participant
}

func TestChainTryAddBlockAcceptsValidSuccessor(t *testing.T) {
	chain, fx := buildChain(t)
	require.True(t, chain.TryAddBlock(fx.next))
	require.Equal(t, 2, chain.Height())
	require.Equal(t, fx.next.BlockHash(), chain.GetLatestBlock().BlockHash())
}

func TestChainTryAddBlockRejectsBadPreviousHash(t *testing.T) {
	chain, fx := buildChain(t)
	fx.next.PreviousHash = "wrong-hash"
	require.False(t, chain.TryAddBlock(fx.next))
	require.Equal(t, 1, chain.Height())
}

func TestChainTryAddBlockRejectsTamperedSignature(t *testing.T) {
	chain, fx := buildChain(t)
	// Recompute hash so ValidateHash still passes, but leave the old
	// signature in place so VerifySignature fails.
	other, err := keys.Generate()
	require.NoError(t, err)
	fx.next.SignatoryNodeID = other.PublicKeyHex()
	fx.next.Hash = fx.next.computeHash()
	require.False(t, chain.TryAddBlock(fx.next))
}

func TestGetFirstVersionBillDecryptsGenesis(t *testing.T) {
	chain, fx := buildChain(t)
	got, err := chain.GetFirstVersionBill(fx.billKeys.PrivateKey())
	require.NoError(t, err)
	require.Equal(t, fx.bill.ID, got.ID)
	require.Equal(t, fx.bill.Sum, got.Sum)
}

func TestGetHolderFromBlockOnIssue(t *testing.T) {
	chain, fx := buildChain(t)
	holder, signer, err := chain.GetHolderFromBlock(chain.GetFirstBlock(), fx.billKeys.PrivateKey())
	require.NoError(t, err)
	require.Nil(t, signer)
	require.Equal(t, fx.bill.Payee.NodeID, holder.NodeID)
}

func TestGetHolderFromBlockRejectsNonHolderChangingOp(t *testing.T) {
	chain, fx := buildChain(t)
	require.True(t, chain.TryAddBlock(fx.next))
	_, _, err := chain.GetHolderFromBlock(fx.next, fx.billKeys.PrivateKey())
	require.Error(t, err)
}

func TestIsLastOfferToSellBlockWaitingForPaymentOnNonOfferTail(t *testing.T) {
	chain, fx := buildChain(t)
	waiting, err := chain.IsLastOfferToSellBlockWaitingForPayment(fx.billKeys.PrivateKey(), 2_000_000_000, 3600)
	require.NoError(t, err)
	require.False(t, waiting.Waiting)
}

func TestIsLastOfferToSellBlockWaitingForPaymentBeforeAndAfterDeadline(t *testing.T) {
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	drawee := testParticipant(t, "drawee")
	drawer := testParticipant(t, "drawer")
	payee := testParticipant(t, "payee")
	b := testBill(t, "bill-2", drawee, drawer, payee)

	issuePayload := &IssueBlockData{Bill: b, Signer: Signer{SigningTimestamp: 1_731_593_928}}
	genesis, err := NewBlock(1, b.ID, issuePayload, 1_731_593_928, "", billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	chain := NewChain(genesis)

	offer := &OfferToSellBlockData{
		Seller: payee, Buyer: drawer, Sum: 1000, Currency: "SAT",
		PaymentAddress: "addr", Signer: Signer{SigningTimestamp: 1_731_593_928},
	}
	offerBlock, err := NewBlock(2, b.ID, offer, 1_731_593_928, genesis.BlockHash(), billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(offerBlock))

	before, err := chain.IsLastOfferToSellBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_929, 3600)
	require.NoError(t, err)
	require.True(t, before.Waiting)
	require.Equal(t, uint64(1000), before.Info.Sum)

	atDeadline, err := chain.IsLastOfferToSellBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_928+3600, 3600)
	require.NoError(t, err)
	require.True(t, atDeadline.Waiting)

	after, err := chain.IsLastOfferToSellBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_928+3601, 3600)
	require.NoError(t, err)
	require.False(t, after.Waiting)
}

func TestIsLastRequestToPayBlockWaitingForPaymentOnNonRequestTail(t *testing.T) {
	chain, fx := buildChain(t)
	waiting, err := chain.IsLastRequestToPayBlockWaitingForPayment(fx.billKeys.PrivateKey(), 2_000_000_000, 3600)
	require.NoError(t, err)
	require.False(t, waiting.Waiting)
}

func TestIsLastRequestToPayBlockWaitingForPaymentBeforeAndAfterDeadline(t *testing.T) {
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	drawee := testParticipant(t, "drawee")
	drawer := testParticipant(t, "drawer")
	payee := testParticipant(t, "payee")
	b := testBill(t, "bill-3", drawee, drawer, payee)

	issuePayload := &IssueBlockData{Bill: b, Signer: Signer{SigningTimestamp: 1_731_593_928}}
	genesis, err := NewBlock(1, b.ID, issuePayload, 1_731_593_928, "", billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	chain := NewChain(genesis)

	req := &RequestToPayBlockData{
		Requester: payee, Currency: "SAT", Signer: Signer{SigningTimestamp: 1_731_593_928},
	}
	reqBlock, err := NewBlock(2, b.ID, req, 1_731_593_928, genesis.BlockHash(), billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(reqBlock))

	before, err := chain.IsLastRequestToPayBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_929, 3600)
	require.NoError(t, err)
	require.True(t, before.Waiting)
	require.Equal(t, payee.NodeID, before.Info.Requester.NodeID)

	atDeadline, err := chain.IsLastRequestToPayBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_928+3600, 3600)
	require.NoError(t, err)
	require.True(t, atDeadline.Waiting)

	after, err := chain.IsLastRequestToPayBlockWaitingForPayment(billKeys.PrivateKey(), 1_731_593_928+3601, 3600)
	require.NoError(t, err)
	require.False(t, after.Waiting)
}

func TestIsLastRequestToAcceptBlockWaitingForAcceptOnNonRequestTail(t *testing.T) {
	chain, fx := buildChain(t)
	waiting, err := chain.IsLastRequestToAcceptBlockWaitingForAccept(fx.billKeys.PrivateKey(), 2_000_000_000, 3600)
	require.NoError(t, err)
	require.False(t, waiting.Waiting)
}

func TestIsLastRequestToAcceptBlockWaitingForAcceptBeforeAndAfterDeadline(t *testing.T) {
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	drawee := testParticipant(t, "drawee")
	drawer := testParticipant(t, "drawer")
	payee := testParticipant(t, "payee")
	b := testBill(t, "bill-4", drawee, drawer, payee)

	issuePayload := &IssueBlockData{Bill: b, Signer: Signer{SigningTimestamp: 1_731_593_928}}
	genesis, err := NewBlock(1, b.ID, issuePayload, 1_731_593_928, "", billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	chain := NewChain(genesis)

	req := &RequestToAcceptBlockData{
		Requester: payee, Signer: Signer{SigningTimestamp: 1_731_593_928},
	}
	reqBlock, err := NewBlock(2, b.ID, req, 1_731_593_928, genesis.BlockHash(), billKeys.PublicKey(), billKeys)
	require.NoError(t, err)
	require.True(t, chain.TryAddBlock(reqBlock))

	before, err := chain.IsLastRequestToAcceptBlockWaitingForAccept(billKeys.PrivateKey(), 1_731_593_929, 3600)
	require.NoError(t, err)
	require.True(t, before.Waiting)
	require.Equal(t, payee.NodeID, before.Info.Requester.NodeID)

	atDeadline, err := chain.IsLastRequestToAcceptBlockWaitingForAccept(billKeys.PrivateKey(), 1_731_593_928+3600, 3600)
	require.NoError(t, err)
	require.True(t, atDeadline.Waiting)

	after, err := chain.IsLastRequestToAcceptBlockWaitingForAccept(billKeys.PrivateKey(), 1_731_593_928+3601, 3600)
	require.NoError(t, err)
	require.False(t, after.Waiting)
}

func TestGetEndorsementsCountOnlyCountsTransfers(t *testing.T) {
	chain, fx := buildChain(t)
	require.True(t, chain.TryAddBlock(fx.next)) // Accept does not count
	require.Equal(t, 0, chain.GetEndorsementsCount())
}

func TestGetAllNodesFromBillIncludesEveryParticipantOnce(t *testing.T) {
	chain, fx := buildChain(t)
	require.True(t, chain.TryAddBlock(fx.next))

	nodes, err := chain.GetAllNodesFromBill(fx.billKeys.PrivateKey())
	require.NoError(t, err)

	require.Contains(t, nodes, fx.bill.Drawee.NodeID)
	require.Contains(t, nodes, fx.bill.Drawer.NodeID)
	require.Contains(t, nodes, fx.bill.Payee.NodeID)

	seen := map[string]int{}
	for _, n := range nodes {
		seen[n]++
	}
	for n, count := range seen {
		require.Equal(t, 1, count, "node %s appeared more than once", n)
	}
}
