package billservice

import (
	"context"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/notify"
)

// CheckBillTimeouts sweeps every known bill for a deadline that has passed
// without the answering action (an accept, a payment, a recourse payment)
// and fires the corresponding timeout notification exactly once per
// (bill, block height, action) triple, even across restarts — svc.notified
// is the durable dedup marker.
func (svc *Service) CheckBillTimeouts(ctx context.Context) error {
	billIDs, err := svc.chains.AllBillIDs(ctx)
	if err != nil {
		return err
	}
	for _, billID := range billIDs {
		if err := svc.checkBillTimeouts(ctx, billID); err != nil {
			log.Warnf("bill %s: check timeouts: %v", billID, err)
		}
	}
	return nil
}

func (svc *Service) checkBillTimeouts(ctx context.Context, billID string) error {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return err
	}
	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return err
	}
	now := svc.clock.Now()
	st, err := svc.projectState(ctx, chain, billPriv, now)
	if err != nil {
		return err
	}
	b, err := chain.GetFirstVersionBill(billPriv)
	if err != nil {
		return err
	}

	if err := svc.checkAcceptTimeout(ctx, billID, chain, b, st, now); err != nil {
		return err
	}
	if err := svc.checkRequestToPayTimeout(ctx, billID, chain, b, st, now); err != nil {
		return err
	}
	if err := svc.checkOfferToSellTimeout(ctx, billID, chain, b, now); err != nil {
		return err
	}
	if err := svc.checkRecourseTimeout(ctx, billID, chain, b, now); err != nil {
		return err
	}
	return nil
}

func (svc *Service) fireOnce(ctx context.Context, billID string, blockHeight int, action string, recipients []string, typ notify.ActionType) error {
	sent, err := svc.notified.WasSent(ctx, billID, blockHeight, action)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}
	if svc.sink != nil {
		for _, nodeID := range recipients {
			if nodeID == "" {
				continue
			}
			if err := svc.sink.Send(ctx, notify.Notification{BillID: billID, RecipientNodeID: nodeID, Action: typ}); err != nil {
				return err
			}
		}
	}
	return svc.notified.MarkSent(ctx, billID, blockHeight, action)
}

func (svc *Service) checkAcceptTimeout(
	ctx context.Context, billID string, chain *bill.Chain, b *bill.Bill, st *state, now uint64,
) error {
	if st.accepted || st.rejectedToAccept || !st.requestedToAccept {
		return nil
	}
	reqBlock, ok := chain.GetLastVersionBlockWithOpCode(bill.OpRequestToAccept)
	if !ok {
		return nil
	}
	if now < reqBlock.BlockTimestamp()+svc.acceptDeadline {
		return nil
	}
	return svc.fireOnce(ctx, billID, int(reqBlock.BlockID()), "accept_timeout",
		[]string{b.Drawee.NodeID, st.holder.NodeID}, notify.ActionAcceptTimeout)
}

func (svc *Service) checkRequestToPayTimeout(
	ctx context.Context, billID string, chain *bill.Chain, b *bill.Bill, st *state, now uint64,
) error {
	if st.paid || st.rejectedToPay || !st.requestedToPay {
		return nil
	}
	reqBlock, ok := chain.GetLastVersionBlockWithOpCode(bill.OpRequestToPay)
	if !ok {
		return nil
	}
	if now < reqBlock.BlockTimestamp()+svc.paymentDeadline {
		return nil
	}
	return svc.fireOnce(ctx, billID, int(reqBlock.BlockID()), "payment_timeout",
		[]string{b.Drawee.NodeID, st.holder.NodeID}, notify.ActionPaymentTimeout)
}

func (svc *Service) checkOfferToSellTimeout(
	ctx context.Context, billID string, chain *bill.Chain, b *bill.Bill, now uint64,
) error {
	offerBlock, ok := chain.GetLastVersionBlockWithOpCode(bill.OpOfferToSell)
	if !ok || chain.GetLatestBlock().BlockID() != offerBlock.BlockID() {
		return nil // superseded by a later block (Sell, reject, or a newer offer)
	}
	if now < offerBlock.BlockTimestamp()+svc.paymentDeadline {
		return nil
	}
	return svc.fireOnce(ctx, billID, int(offerBlock.BlockID()), "offer_to_sell_timeout",
		[]string{b.Drawee.NodeID}, notify.ActionPaymentTimeout)
}

func (svc *Service) checkRecourseTimeout(
	ctx context.Context, billID string, chain *bill.Chain, b *bill.Bill, now uint64,
) error {
	reqBlock, ok := chain.GetLastVersionBlockWithOpCode(bill.OpRequestRecourse)
	if !ok || chain.GetLatestBlock().BlockID() != reqBlock.BlockID() {
		return nil
	}
	if now < reqBlock.BlockTimestamp()+svc.recourseDeadline {
		return nil
	}
	return svc.fireOnce(ctx, billID, int(reqBlock.BlockID()), "recourse_timeout",
		[]string{b.Drawee.NodeID}, notify.ActionRecourseTimeout)
}
