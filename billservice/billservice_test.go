package billservice

import (
	"context"
	"testing"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/clock"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/hubertusvie/bcr-ebilld/notify"
	"github.com/stretchr/testify/require"
)

const now0 uint64 = 1_731_593_928

// newTestService builds a Service over a fresh memStore with a bootstrapped
// local identity, a fixed clock at now0, and a MemorySink so tests can
// assert on exactly what was sent.
func newTestService(t *testing.T, c clock.Clock) (*Service, *memStore, *notify.MemorySink, *keys.BcrKeys) {
	t.Helper()
	db := newMemStore()
	ownerKeys, err := keys.Generate()
	require.NoError(t, err)

	genesis, err := identity.NewCreateBlock(ownerKeys.PublicKeyHex(), "drawer", "drawer@example.com", now0, ownerKeys.PublicKey(), ownerKeys)
	require.NoError(t, err)
	db.identityChain = identity.NewChain(genesis)
	db.identityKey = ownerKeys.PrivateKeyHex()

	sink := notify.NewMemorySink()
	svc := New(Config{
		Chains: db, Keys: db, Identities: db, IdentityKeys: db,
		Companies: db, CompanyKeys: db, Notified: db, Paid: db, Contacts: db,
		Oracle: &fakeOracle{paidAddresses: map[string]uint64{}},
		Sink: sink, Clock: c,
	})
	return svc, db, sink, ownerKeys
}

func testParticipant(t *testing.T, name string) bill.Participant {
	t.Helper()
	k, err := keys.Generate()
	require.NoError(t, err)
	return bill.Participant{Type: bill.ParticipantPerson, NodeID: k.PublicKeyHex(), Name: name}
}

// issueTestBill issues a fresh bill with drawer == the service's own
// identity, and distinct drawee/payee.
func issueTestBill(t *testing.T, svc *Service, drawer bill.Participant) (*BitcreditBillResult, *keys.BcrKeys) {
	t.Helper()
	drawee := testParticipant(t, "drawee")
	payee := testParticipant(t, "payee")
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	billID := ecies.Sha256Base58(billKeys.PublicKey().SerializeCompressed())

	result, err := svc.IssueBill(context.Background(), IssueParams{
		Bill: bill.Bill{
			ID: billID, CountryOfIssuing: "DE", CityOfIssuing: "Berlin",
			Drawee: drawee, Drawer: drawer, Payee: payee,
			Currency: "SAT", Sum: 100_000, MaturityDate: "2026-12-01", IssueDate: "2026-07-30",
			CountryOfPayment: "DE", CityOfPayment: "Berlin", Language: "en",
		},
		By:   Signer{Person: drawer},
		Keys: billKeys,
	})
	require.NoError(t, err)
	return result, billKeys
}

func TestIssueBillCreatesChainWithPayeeAsHolder(t *testing.T) {
	svc, db, sink, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}

	result, _ := issueTestBill(t, svc, drawer)

	require.Equal(t, 1, result.Height)
	require.Equal(t, result.Bill.Payee.NodeID, result.Holder.NodeID)
	require.False(t, result.Accepted)

	exists, err := db.ChainExists(context.Background(), result.Bill.ID)
	require.NoError(t, err)
	require.True(t, exists)

	// IssueBill must also cross-link into the drawer's own identity chain.
	idChain, err := db.GetIdentityChain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, idChain.Height()) // Create + SignPersonBill

	require.Len(t, sink.Sent, 2) // drawee and payee both get BillSigned
}

func TestIssueBillSelfAcceptsWhenDrawerIsDrawee(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	payee := testParticipant(t, "payee")
	billKeys, err := keys.Generate()
	require.NoError(t, err)
	billID := ecies.Sha256Base58(billKeys.PublicKey().SerializeCompressed())

	result, err := svc.IssueBill(context.Background(), IssueParams{
		Bill: bill.Bill{
			ID: billID, Drawee: drawer, Drawer: drawer, Payee: payee,
			Currency: "SAT", Sum: 5000, MaturityDate: "2026-12-01", IssueDate: "2026-07-30",
		},
		By:   Signer{Person: drawer},
		Keys: billKeys,
	})
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.Equal(t, 2, result.Height) // Issue + auto-Accept
}

func TestExecuteAcceptRequiresDrawee(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	impostor := testParticipant(t, "impostor")
	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionAccept, By: Signer{Person: impostor},
	})
	require.ErrorIs(t, err, ErrCallerIsNotDrawee)
}

func TestExecuteAcceptSucceedsForDraweeThenRejectsDoubleAccept(t *testing.T) {
	svc, _, sink, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	sink.Sent = nil
	updated, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionAccept, By: Signer{Person: result.Bill.Drawee},
	})
	require.NoError(t, err)
	require.True(t, updated.Accepted)
	require.Len(t, sink.Sent, 1)
	require.Equal(t, notify.ActionBillAccepted, sink.Sent[0].Action)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionAccept, By: Signer{Person: result.Bill.Drawee},
	})
	require.ErrorIs(t, err, ErrBillAlreadyAccepted)
}

func TestExecuteOfferToSellRejectsDraweeAsBuyer(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	drawee := result.Bill.Drawee
	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionOfferToSell, By: Signer{Person: result.Bill.Payee},
		Buyer: &drawee, Sum: 1000, Currency: "SAT", PaymentAddress: "addr",
	})
	require.ErrorIs(t, err, ErrDraweeCannotBeBuyer)
}

func TestExecuteBlockedWhileOfferToSellWaiting(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	buyer := testParticipant(t, "buyer")
	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionOfferToSell, By: Signer{Person: result.Bill.Payee},
		Buyer: &buyer, Sum: 1000, Currency: "SAT", PaymentAddress: "addr",
	})
	require.NoError(t, err)

	// Any other action is frozen until the offer settles or expires.
	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionAccept, By: Signer{Person: result.Bill.Drawee},
	})
	require.ErrorIs(t, err, ErrBillIsOfferedToSellAndWaiting)
}

func TestExecuteEndorseTransfersHolder(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	endorsee := testParticipant(t, "endorsee")
	updated, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionEndorse, By: Signer{Person: result.Bill.Payee}, Endorsee: &endorsee,
	})
	require.NoError(t, err)
	require.Equal(t, endorsee.NodeID, updated.Holder.NodeID)
	require.Equal(t, 1, updated.Endorsements)
}

func TestExecuteRequestRecourseRejectsNonPastHolder(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	stranger := testParticipant(t, "stranger")
	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestRecourse, By: Signer{Person: result.Bill.Payee},
		Recoursee: &stranger, Sum: 100, Currency: "SAT",
		RecourseReason: bill.RecourseReason{Accept: false, Sum: 100, Currency: "SAT"},
	})
	require.ErrorIs(t, err, ErrRecourseeNotPastHolder)
}

func TestCheckBillTimeoutsFiresAcceptTimeoutOnceAfterDeadline(t *testing.T) {
	svc, db, sink, ownerKeys := newTestService(t, clock.Fixed(now0))
	svc.acceptDeadline = 3600
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestToAccept, By: Signer{Person: result.Bill.Payee},
	})
	require.NoError(t, err)

	// Before the deadline: nothing fires.
	require.NoError(t, svc.CheckBillTimeouts(context.Background()))
	before := len(sink.Sent)

	// Move the clock past the deadline and sweep twice: exactly one
	// accept_timeout notification set should go out across both sweeps.
	fixed := svc.clock.(clock.Fixed)
	svc.clock = clock.Fixed(uint64(fixed) + 3601)
	require.NoError(t, svc.CheckBillTimeouts(context.Background()))
	afterFirst := len(sink.Sent)
	require.Greater(t, afterFirst, before)

	require.NoError(t, svc.CheckBillTimeouts(context.Background()))
	afterSecond := len(sink.Sent)
	require.Equal(t, afterFirst, afterSecond, "timeout must fire exactly once, even across repeated sweeps")

	sent, err := db.WasSent(context.Background(), result.Bill.ID, 2, "accept_timeout")
	require.NoError(t, err)
	require.True(t, sent)
}

func TestRepairCrossChainLinksIsIdempotent(t *testing.T) {
	svc, db, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	heightAfterIssue, err := db.GetIdentityChain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, heightAfterIssue.Height())

	// Repairing an already-linked tip must be a no-op.
	err = svc.RepairCrossChainLinks(context.Background(), result.Bill.ID, Signer{Person: drawer})
	require.NoError(t, err)

	afterRepair, err := db.GetIdentityChain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, afterRepair.Height(), "repairing an already-linked tip must not append a duplicate link")
}

func TestExecuteRejectToPayRequiresActiveRequest(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToPay, By: Signer{Person: result.Bill.Drawee},
	})
	require.ErrorIs(t, err, ErrBillNotRequestedToPay)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestToPay, By: Signer{Person: result.Bill.Payee}, Currency: "SAT",
	})
	require.NoError(t, err)

	updated, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToPay, By: Signer{Person: result.Bill.Drawee},
	})
	require.NoError(t, err)
	require.True(t, updated.RejectedToPay)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToPay, By: Signer{Person: result.Bill.Drawee},
	})
	require.ErrorIs(t, err, ErrBillWasRejectedToPay)
}

func TestExecuteRejectToBuyRequiresActiveOffer(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToBuy, By: Signer{Person: result.Bill.Payee},
	})
	require.ErrorIs(t, err, ErrBillNotOfferedToSell)

	buyer := testParticipant(t, "buyer")
	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionOfferToSell, By: Signer{Person: result.Bill.Payee},
		Buyer: &buyer, Sum: 1000, Currency: "SAT", PaymentAddress: "addr",
	})
	require.NoError(t, err)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToBuy, By: Signer{Person: result.Bill.Payee},
	})
	require.ErrorIs(t, err, ErrCallerIsNotBuyer)

	updated, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToBuy, By: Signer{Person: buyer},
	})
	require.NoError(t, err)
	require.True(t, updated.RejectedToBuy)
}

func TestExecuteRequestRecoursePayRequiresPriorRejectToPay(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	// The recoursee must have been a past holder.
	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionEndorse, By: Signer{Person: result.Bill.Payee}, Endorsee: &drawer,
	})
	require.NoError(t, err)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestRecourse, By: Signer{Person: drawer},
		Recoursee: &result.Bill.Payee, Sum: 100, Currency: "SAT",
		RecourseReason: bill.RecourseReason{Accept: false, Sum: 100, Currency: "SAT"},
	})
	require.ErrorIs(t, err, ErrBillNotRequestedToPay)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestToPay, By: Signer{Person: drawer}, Currency: "SAT",
	})
	require.NoError(t, err)
	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRejectToPay, By: Signer{Person: result.Bill.Drawee},
	})
	require.NoError(t, err)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestRecourse, By: Signer{Person: drawer},
		Recoursee: &result.Bill.Payee, Sum: 100, Currency: "SAT",
		RecourseReason: bill.RecourseReason{Accept: false, Sum: 100, Currency: "SAT"},
	})
	require.NoError(t, err)
}

func TestExecuteBlockedWhileRequestToPayWaiting(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionRequestToPay, By: Signer{Person: result.Bill.Payee}, Currency: "SAT",
	})
	require.NoError(t, err)

	_, err = svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionEndorse, By: Signer{Person: result.Bill.Payee}, Endorsee: &drawer,
	})
	require.ErrorIs(t, err, ErrBillIsRequestedToPayAndWaitingForPayment)
}

func TestGetFullBillProjectsAcceptedAndHolder(t *testing.T) {
	svc, _, _, ownerKeys := newTestService(t, clock.Fixed(now0))
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex(), Name: "drawer"}
	result, _ := issueTestBill(t, svc, drawer)

	_, err := svc.ExecuteBillAction(context.Background(), result.Bill.ID, Action{
		Kind: ActionAccept, By: Signer{Person: result.Bill.Drawee},
	})
	require.NoError(t, err)

	full, err := svc.GetFullBill(context.Background(), result.Bill.ID)
	require.NoError(t, err)
	require.True(t, full.Accepted)
	require.Equal(t, 2, full.Height)
}
