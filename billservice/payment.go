package billservice

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// ReconcilePayments sweeps every known bill for a pending request-to-pay,
// offer-to-sell or recourse payment that has since landed on-chain, and,
// when it finds one, records a paid request-to-pay in svc.paid (no block is
// appended for it) or appends the matching Sell or Recourse block. It is safe to call
// repeatedly (e.g. from a ticker): svc.paid de-duplicates addresses already
// credited, and TryAddBlock is a no-op once the chain has already moved on
// from the block being settled.
func (svc *Service) ReconcilePayments(ctx context.Context) error {
	billIDs, err := svc.chains.AllBillIDs(ctx)
	if err != nil {
		return err
	}
	for _, billID := range billIDs {
		if err := svc.reconcileBill(ctx, billID); err != nil {
			log.Warnf("bill %s: reconcile payments: %v", billID, err)
		}
	}
	return nil
}

func (svc *Service) reconcileBill(ctx context.Context, billID string) error {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return err
	}
	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return err
	}
	b, err := chain.GetFirstVersionBill(billPriv)
	if err != nil {
		return err
	}
	now := svc.clock.Now()
	st, err := svc.projectState(ctx, chain, billPriv, now)
	if err != nil {
		return err
	}

	if st.requestToPayWaiting.Waiting && !st.paid {
		if err := svc.settleRequestToPay(ctx, billID, b, st); err != nil {
			return err
		}
	}
	if st.offerToSellWaiting.Waiting {
		if err := svc.settleOfferToSell(ctx, chain, billID, b, st); err != nil {
			return err
		}
	}
	if st.recourseWaiting.Waiting {
		if err := svc.settleRecourse(ctx, chain, billID, b, st); err != nil {
			return err
		}
	}
	return nil
}

// settleRequestToPay checks whether the bill's active request-to-pay has
// been answered by a direct payment to combine(bill_pub, holder_pub) and,
// if the full sum has landed, marks the bill paid. Unlike the
// offer-to-sell and recourse sweeps this never appends a block: a plain
// request-to-pay is settled off-chain, so the bill simply becomes paid.
func (svc *Service) settleRequestToPay(ctx context.Context, billID string, b *bill.Bill, st *state) error {
	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return err
	}
	address, err := svc.requestToPayAddress(billPriv, st.holder.NodeID)
	if err != nil {
		return err
	}
	if already, err := svc.paid.IsPaid(ctx, address); err != nil {
		return err
	} else if already {
		return nil
	}

	paid, received, err := svc.oracle.CheckIfPaid(ctx, address, b.Sum)
	if err != nil {
		return err
	}
	if !paid || received == 0 || received < b.Sum {
		return nil
	}
	log.Infof("bill %s: request-to-pay payment observed: %d sat received at %s", billID, received, address)
	return svc.paid.MarkPaid(ctx, address)
}

// settleOfferToSell checks whether the bill's pending offer-to-sell payment
// address has received its full sum and, if so, appends the Sell block
// that hands the bill to the buyer.
func (svc *Service) settleOfferToSell(
	ctx context.Context, chain *bill.Chain, billID string, b *bill.Bill, st *state,
) error {
	info := st.offerToSellWaiting.Info
	if already, err := svc.paid.IsPaid(ctx, info.PaymentAddress); err != nil {
		return err
	} else if already {
		return nil
	}

	paid, received, err := svc.oracle.CheckIfPaid(ctx, info.PaymentAddress, info.Sum)
	if err != nil || !paid {
		return err
	}

	controls, err := svc.controlsParticipant(ctx, info.Seller)
	if err != nil {
		return err
	}
	if !controls {
		return nil
	}
	log.Infof("bill %s: offer-to-sell payment observed: %d sat received at %s", billID, received, info.PaymentAddress)

	if _, err := svc.appendBlock(ctx, chain, billID, Action{Kind: actionSell, By: Signer{Person: info.Seller}}, st, b); err != nil {
		return err
	}
	if err := svc.notifyForAction(ctx, billID, b, st, Action{Kind: actionSell}, chain.GetLatestBlock()); err != nil {
		log.Warnf("bill %s: notify after sell failed: %v", billID, err)
	}
	return svc.paid.MarkPaid(ctx, info.PaymentAddress)
}

// settleRecourse checks whether the bill's pending recourse payment address
// has received its full sum and, if so, appends the Recourse block that
// makes the recoursee the bill's holder.
func (svc *Service) settleRecourse(
	ctx context.Context, chain *bill.Chain, billID string, b *bill.Bill, st *state,
) error {
	info := st.recourseWaiting.Info

	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return err
	}
	address, err := svc.oracle.GetAddressToPay(billPriv.PubKey(), recourseePublicKey(info))
	if err != nil {
		return err
	}
	if already, err := svc.paid.IsPaid(ctx, address); err != nil {
		return err
	} else if already {
		return nil
	}

	paid, received, err := svc.oracle.CheckIfPaid(ctx, address, info.Sum)
	if err != nil || !paid {
		return err
	}

	controls, err := svc.controlsParticipant(ctx, info.Recoursee)
	if err != nil {
		return err
	}
	if !controls {
		return nil
	}
	log.Infof("bill %s: recourse payment observed: %d sat received at %s", billID, received, address)

	if _, err := svc.appendBlock(ctx, chain, billID, Action{Kind: actionRecourse, By: Signer{Person: info.Recoursee}}, st, b); err != nil {
		return err
	}
	if err := svc.notifyForAction(ctx, billID, b, st, Action{Kind: actionRecourse}, chain.GetLatestBlock()); err != nil {
		log.Warnf("bill %s: notify after recourse failed: %v", billID, err)
	}
	return svc.paid.MarkPaid(ctx, address)
}

// recourseePublicKey recovers the recoursee's public key from their node
// id, since RecoursePaymentInfo only carries the participant record.
func recourseePublicKey(info bill.RecoursePaymentInfo) *btcec.PublicKey {
	pub, err := keys.FromPublicKeyHex(info.Recoursee.NodeID)
	if err != nil {
		return nil
	}
	return pub
}
