package billservice

import (
	"context"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// state is the internal projection both validate.go and the public
// BitcreditBillResult are built from: the chain's mutable derived facts at
// a given instant, since "accepted", "paid", "rejected" etc. all depend on
// which blocks exist and, for the two payment waits, on now.
type state struct {
	holder                 bill.Participant
	endorsements           int
	accepted               bool
	requestedToAccept      bool
	requestedToPay         bool
	paid                   bool
	offerToSellWaiting     bill.OfferToSellWaitingForPayment
	recourseWaiting        bill.RecourseWaitingForPayment
	requestToPayWaiting    bill.RequestToPayWaitingForPayment
	requestToAcceptWaiting bill.RequestToAcceptWaiting
	rejectedToAccept       bool
	rejectedToPay          bool
	rejectedToBuy          bool
	rejectedToPayRecourse  bool
}

func project(
	chain *bill.Chain, billPriv *btcec.PrivateKey, now, acceptDeadline, paymentDeadline, recourseDeadline uint64,
) (*state, error) {
	genesis, err := chain.GetFirstVersionBill(billPriv)
	if err != nil {
		return nil, err
	}

	holder, _, err := bill.GetHolderFromBlock(chain.GetFirstBlock(), billPriv)
	if err != nil {
		return nil, err
	}

	s := &state{holder: holder, endorsements: chain.GetEndorsementsCount()}
	_ = genesis

	for _, b := range chain.Blocks() {
		switch b.BlockOpCode() {
		case bill.OpAccept:
			s.accepted = true
		case bill.OpRequestToAccept:
			s.requestedToAccept = true
		case bill.OpRequestToPay:
			s.requestedToPay = true
		case bill.OpEndorse, bill.OpMint, bill.OpSell, bill.OpRecourse:
			h, _, err := bill.GetHolderFromBlock(b, billPriv)
			if err != nil {
				return nil, err
			}
			s.holder = h
			if b.BlockOpCode() == bill.OpSell {
				s.paid = true
			}
		case bill.OpRejectToAccept:
			s.rejectedToAccept = true
		case bill.OpRejectToPay:
			s.rejectedToPay = true
		case bill.OpRejectToBuy:
			s.rejectedToBuy = true
		case bill.OpRejectToPayRecourse:
			s.rejectedToPayRecourse = true
		}
	}

	offerWaiting, err := chain.IsLastOfferToSellBlockWaitingForPayment(billPriv, now, paymentDeadline)
	if err != nil {
		return nil, err
	}
	s.offerToSellWaiting = offerWaiting

	recourseWaiting, err := chain.IsLastRequestToRecourseBlockWaitingForPayment(billPriv, now, recourseDeadline)
	if err != nil {
		return nil, err
	}
	s.recourseWaiting = recourseWaiting

	requestToPayWaiting, err := chain.IsLastRequestToPayBlockWaitingForPayment(billPriv, now, paymentDeadline)
	if err != nil {
		return nil, err
	}
	s.requestToPayWaiting = requestToPayWaiting

	requestToAcceptWaiting, err := chain.IsLastRequestToAcceptBlockWaitingForAccept(billPriv, now, acceptDeadline)
	if err != nil {
		return nil, err
	}
	s.requestToAcceptWaiting = requestToAcceptWaiting

	return s, nil
}

// projectState projects chain the same way project does, then overlays a
// fact project cannot see on its own: a request-to-pay is settled by a
// direct payment that never appends a block, so whether it has been paid
// only lives in svc.paid, keyed by the holder's combine(bill_pub,
// holder_pub) address.
func (svc *Service) projectState(ctx context.Context, chain *bill.Chain, billPriv *btcec.PrivateKey, now uint64) (*state, error) {
	st, err := project(chain, billPriv, now, svc.acceptDeadline, svc.paymentDeadline, svc.recourseDeadline)
	if err != nil {
		return nil, err
	}
	if st.paid || !st.requestToPayWaiting.Waiting {
		return st, nil
	}
	address, err := svc.requestToPayAddress(billPriv, st.holder.NodeID)
	if err != nil {
		return nil, err
	}
	paidDirect, err := svc.paid.IsPaid(ctx, address)
	if err != nil {
		return nil, err
	}
	st.paid = paidDirect
	return st, nil
}

// requestToPayAddress is the payment address a holder publishes when
// answering a request-to-pay: bill_pub and holder_pub combined, the same
// derivation GetAddressToPay uses for offer-to-sell and recourse payments.
func (svc *Service) requestToPayAddress(billPriv *btcec.PrivateKey, holderNodeID string) (string, error) {
	holderPub, err := keys.FromPublicKeyHex(holderNodeID)
	if err != nil {
		return "", err
	}
	return svc.oracle.GetAddressToPay(billPriv.PubKey(), holderPub)
}

// GetLastVersionBill returns the bill as drawn. Named to mirror the
// upstream "last version" accessor, even though in this model the drawn
// fields never change after issuance — only holdership and status do,
// which GetFullBill projects separately.
func (svc *Service) GetLastVersionBill(ctx context.Context, billID string) (*bill.Bill, error) {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return nil, err
	}
	priv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return nil, err
	}
	return chain.GetFirstVersionBill(priv)
}

// GetFullBill loads billID's chain and projects it into the read-side view
// callers outside the engine consume.
func (svc *Service) GetFullBill(ctx context.Context, billID string) (*BitcreditBillResult, error) {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return nil, err
	}
	priv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return nil, err
	}
	b, err := chain.GetFirstVersionBill(priv)
	if err != nil {
		return nil, err
	}
	now := svc.clock.Now()
	st, err := svc.projectState(ctx, chain, priv, now)
	if err != nil {
		return nil, err
	}

	return &BitcreditBillResult{
		Bill:                  *b,
		Holder:                st.holder,
		Endorsements:          st.endorsements,
		Accepted:              st.accepted,
		Paid:                  st.paid,
		RequestedToPay:        st.requestedToPay,
		RequestedToAccept:     st.requestedToAccept,
		OfferToSellWaiting:    st.offerToSellWaiting,
		RecourseWaiting:       st.recourseWaiting,
		RequestToPayWaiting:   st.requestToPayWaiting,
		RejectedToAccept:      st.rejectedToAccept,
		RejectedToPay:         st.rejectedToPay,
		RejectedToBuy:         st.rejectedToBuy,
		RejectedToPayRecourse: st.rejectedToPayRecourse,
		Height:                chain.Height(),
	}, nil
}

// PastEndorsee is a participant who used to hold the bill, with the
// timestamp of the block that took holdership away from them.
type PastEndorsee struct {
	Participant bill.Participant
	Timestamp   uint64
}

// GetPastEndorseesForBill returns every participant who has held the bill
// before its current holder, excluding excludeNodeID (typically the
// caller), newest first. Recourse blocks are skipped: a recourse payment
// returns the bill to a past holder rather than creating a new one, so it
// never contributes a fresh past-endorsee entry.
func GetPastEndorseesForBill(chain *bill.Chain, billPriv *btcec.PrivateKey, excludeNodeID string) ([]PastEndorsee, error) {
	seen := make(map[string]bool)
	var result []PastEndorsee

	blocks := chain.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		switch b.BlockOpCode() {
		case bill.OpEndorse, bill.OpMint, bill.OpSell:
			payload, err := b.DecryptPayload(billPriv)
			if err != nil {
				return nil, err
			}
			var from bill.Participant
			var ts uint64
			switch p := payload.(type) {
			case *bill.EndorseBlockData:
				from, ts = p.Endorser, p.SigningTimestamp
			case *bill.MintBlockData:
				from, ts = p.Endorser, p.SigningTimestamp
			case *bill.SellBlockData:
				from, ts = p.Seller, p.SigningTimestamp
			}
			if from.NodeID != "" && !seen[from.NodeID] {
				seen[from.NodeID] = true
				result = append(result, PastEndorsee{Participant: from, Timestamp: ts})
			}
		}
	}

	genesis, err := chain.GetFirstVersionBill(billPriv)
	if err != nil {
		return nil, err
	}
	if genesis.Drawer.NodeID != genesis.Drawee.NodeID && !seen[genesis.Drawer.NodeID] {
		seen[genesis.Drawer.NodeID] = true
		result = append(result, PastEndorsee{Participant: genesis.Drawer, Timestamp: chain.GetFirstBlock().BlockTimestamp()})
	}

	filtered := result[:0]
	for _, pe := range result {
		if pe.Participant.NodeID != excludeNodeID {
			filtered = append(filtered, pe)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})
	return filtered, nil
}
