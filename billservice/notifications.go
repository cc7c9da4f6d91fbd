package billservice

import (
	"context"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/notify"
)

// recipientsAndType maps an action, given the bill's drawn fields and the
// state it was applied against, to who needs to hear about it and why.
// Exactly one notification fires per recipient per action; there is no fan
// out to every node ever on the bill.
func recipientsAndType(b *bill.Bill, st *state, action Action) ([]string, notify.ActionType) {
	switch action.Kind {
	case ActionAccept:
		return []string{st.holder.NodeID}, notify.ActionBillAccepted
	case ActionRequestToAccept:
		return []string{b.Drawee.NodeID}, notify.ActionBillAcceptRequested
	case ActionRequestToPay:
		return []string{b.Drawee.NodeID}, notify.ActionBillPaymentRequested
	case ActionOfferToSell:
		return []string{action.Buyer.NodeID}, notify.ActionBillOfferedToSell
	case actionSell:
		info := st.offerToSellWaiting.Info
		return []string{info.Seller.NodeID, info.Buyer.NodeID}, notify.ActionBillSold
	case ActionEndorse:
		return []string{action.Endorsee.NodeID}, notify.ActionBillEndorsed
	case ActionMint:
		return []string{action.Endorsee.NodeID}, notify.ActionBillMinted
	case ActionRequestRecourse:
		return []string{action.Recoursee.NodeID}, notify.ActionBillRecourseRequested
	case actionRecourse:
		info := st.recourseWaiting.Info
		return []string{info.Recourser.NodeID}, notify.ActionBillRecoursePaid
	case ActionRejectToAccept, ActionRejectToPay, ActionRejectToBuy, ActionRejectToPayRecourse:
		return []string{st.holder.NodeID}, notify.ActionBillRejected
	default:
		return nil, ""
	}
}

// notifyForAction sends the notification implied by action, once it has
// already been applied to the chain.
func (svc *Service) notifyForAction(ctx context.Context, billID string, b *bill.Bill, st *state, action Action, _ *bill.Block) error {
	if svc.sink == nil || st == nil {
		return nil
	}
	recipients, typ := recipientsAndType(b, st, action)
	for _, nodeID := range recipients {
		if nodeID == "" {
			continue
		}
		if err := svc.sink.Send(ctx, notify.Notification{BillID: billID, RecipientNodeID: nodeID, Action: typ}); err != nil {
			return err
		}
	}
	return nil
}

// notifyBillSigned tells the bill's drawee and payee that a new bill names
// them, once its genesis block lands.
func (svc *Service) notifyBillSigned(ctx context.Context, b *bill.Bill, _ *bill.Block) error {
	if svc.sink == nil {
		return nil
	}
	for _, nodeID := range []string{b.Drawee.NodeID, b.Payee.NodeID} {
		if nodeID == "" || nodeID == b.Drawer.NodeID {
			continue
		}
		if err := svc.sink.Send(ctx, notify.Notification{BillID: b.ID, RecipientNodeID: nodeID, Action: notify.ActionBillSigned}); err != nil {
			return err
		}
	}
	return nil
}
