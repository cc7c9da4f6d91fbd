package billservice

import "github.com/hubertusvie/bcr-ebilld/blockchain/bill"

// ActionKind is the user-initiated action a caller wants applied to a bill.
// Sell and Recourse are deliberately absent: those blocks are appended only
// by the payment reconciler once it observes the corresponding bitcoin
// payment, never directly by a caller.
type ActionKind string

const (
	ActionAccept              ActionKind = "Accept"
	ActionRequestToAccept     ActionKind = "RequestToAccept"
	ActionRequestToPay        ActionKind = "RequestToPay"
	ActionOfferToSell         ActionKind = "OfferToSell"
	ActionEndorse             ActionKind = "Endorse"
	ActionMint                ActionKind = "Mint"
	ActionRequestRecourse     ActionKind = "RequestRecourse"
	ActionRejectToAccept      ActionKind = "RejectToAccept"
	ActionRejectToPay         ActionKind = "RejectToPay"
	ActionRejectToBuy         ActionKind = "RejectToBuy"
	ActionRejectToPayRecourse ActionKind = "RejectToPayRecourse"

	// actionSell and actionRecourse are appended only by the payment
	// reconciler once it observes the matching bitcoin payment, never by
	// a caller directly — so they are unexported and skip validate
	// entirely (payment.go already knows the preconditions hold).
	actionSell     ActionKind = "sell"
	actionRecourse ActionKind = "recourse"
)

// Signer is whoever is actually producing the detached signature on a new
// block: a person acting for themselves, or a person acting as one of a
// company's authorized signatories.
type Signer struct {
	Person  bill.Participant
	Company *bill.Participant // nil unless acting for a company
}

// NodeID is the identity this signer is acting as on the bill: the
// company's, if one is set, otherwise the person's own.
func (s Signer) NodeID() string {
	if s.Company != nil {
		return s.Company.NodeID
	}
	return s.Person.NodeID
}

// Action is everything ExecuteBillAction needs to append the right block:
// which action, who is performing it, and the action-specific fields.
// Fields irrelevant to Kind are simply left zero.
type Action struct {
	Kind ActionKind
	By   Signer

	Endorsee       *bill.Participant // Endorse, Mint
	Buyer          *bill.Participant // OfferToSell
	Recoursee      *bill.Participant // RequestRecourse
	Sum            uint64            // OfferToSell, Mint, RequestRecourse
	Currency       string            // RequestToPay, OfferToSell, Mint, RequestRecourse
	PaymentAddress string            // OfferToSell
	RecourseReason bill.RecourseReason
}

// BitcreditBillResult is the read-side projection of a bill: the immutable
// issuance fields plus everything derived by walking the chain. This is
// what callers outside the engine actually see; the chain itself never
// leaves billservice except through this projection.
type BitcreditBillResult struct {
	Bill bill.Bill

	Holder        bill.Participant
	Endorsements  int
	Accepted      bool
	Paid          bool
	RequestedToPay    bool
	RequestedToAccept bool

	OfferToSellWaiting  bill.OfferToSellWaitingForPayment
	RecourseWaiting     bill.RecourseWaitingForPayment
	RequestToPayWaiting bill.RequestToPayWaitingForPayment

	RejectedToAccept      bool
	RejectedToPay         bool
	RejectedToBuy         bool
	RejectedToPayRecourse bool

	Height int
}
