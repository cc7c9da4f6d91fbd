package billservice

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
)

// validate checks action against the bill's current projected state,
// returning the specific sentinel error for whichever precondition fails,
// or nil if the action may proceed. It never mutates anything; execute.go
// only appends a block once this returns nil.
func (svc *Service) validate(
	chain *bill.Chain, billPriv *btcec.PrivateKey, b *bill.Bill, st *state, action Action,
) error {
	// The three Reject* actions are each the answer to exactly one of the
	// three waiting states billBlocked guards, so they run their own
	// narrower "not waiting on the others" checks below instead of the
	// blanket gate.
	switch action.Kind {
	case ActionRejectToBuy, ActionRejectToPay, ActionRejectToPayRecourse:
	default:
		if blocked, err := billBlocked(st); blocked {
			return err
		} else if err != nil {
			return err
		}
	}

	callerID := action.By.NodeID()

	switch action.Kind {
	case ActionAccept:
		if callerID != b.Drawee.NodeID {
			return ErrCallerIsNotDrawee
		}
		if st.accepted {
			return ErrBillAlreadyAccepted
		}
		if st.rejectedToAccept {
			return ErrBillWasRejectedToAccept
		}

	case ActionRequestToAccept:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotHolder
		}
		if st.requestedToAccept {
			return ErrBillAlreadyRequestedToAccept
		}
		if st.accepted {
			return ErrBillAlreadyAccepted
		}
		if st.rejectedToAccept {
			return ErrBillWasRejectedToAccept
		}

	case ActionRequestToPay:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotHolder
		}
		if st.requestedToPay {
			return ErrBillAlreadyRequestedToPay
		}
		if st.paid {
			return ErrBillAlreadyPaid
		}
		if st.rejectedToPay {
			return ErrBillWasRejectedToPay
		}

	case ActionOfferToSell:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotHolder
		}
		if action.Buyer == nil {
			return ErrInvalidAction
		}
		if action.Buyer.NodeID == b.Drawee.NodeID {
			return ErrDraweeCannotBeBuyer
		}
		if st.rejectedToBuy {
			return ErrBillWasRejectedToBuy
		}

	case ActionEndorse:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotHolder
		}
		if action.Endorsee == nil {
			return ErrInvalidAction
		}

	case ActionMint:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotHolder
		}
		if action.Endorsee == nil {
			return ErrInvalidAction
		}
		if action.Sum == 0 || action.Currency == "" {
			return ErrInvalidSumCurrency
		}

	case ActionRequestRecourse:
		if callerID != st.holder.NodeID {
			return ErrCallerIsNotRecourser
		}
		if action.Recoursee == nil {
			return ErrInvalidAction
		}
		if err := recourseeWasHolder(chain, billPriv, action); err != nil {
			return err
		}
		if action.RecourseReason.Accept {
			if !st.rejectedToAccept {
				return ErrBillNotRequestedToAccept
			}
			if st.requestToAcceptWaiting.Waiting {
				return ErrBillRequestToAcceptDidNotExpireAndWasNotRejected
			}
		} else {
			if action.Sum == 0 || action.Currency == "" {
				return ErrInvalidSumCurrency
			}
			if !st.rejectedToPay {
				return ErrBillNotRequestedToPay
			}
			if st.paid {
				return ErrBillAlreadyPaid
			}
			if st.requestToPayWaiting.Waiting {
				return ErrBillRequestToPayDidNotExpireAndWasNotRejected
			}
		}

	case ActionRejectToAccept:
		if callerID != b.Drawee.NodeID {
			return ErrCallerIsNotDrawee
		}
		if st.accepted {
			return ErrBillAlreadyAccepted
		}
		if st.rejectedToAccept {
			return ErrBillWasRejectedToAccept
		}

	case ActionRejectToPay:
		if chain.GetLatestBlock().BlockOpCode() == bill.OpRejectToPay {
			return ErrBillWasRejectedToPay
		}
		if st.offerToSellWaiting.Waiting {
			return ErrBillIsOfferedToSellAndWaiting
		}
		if st.recourseWaiting.Waiting {
			return ErrBillIsInRecourseAndWaiting
		}
		if callerID != b.Drawee.NodeID {
			return ErrCallerIsNotDrawee
		}
		if st.paid {
			return ErrBillAlreadyPaid
		}
		if !st.requestToPayWaiting.Waiting {
			return ErrBillNotRequestedToPay
		}

	case ActionRejectToBuy:
		if chain.GetLatestBlock().BlockOpCode() == bill.OpRejectToBuy {
			return ErrBillWasRejectedToBuy
		}
		if st.recourseWaiting.Waiting {
			return ErrBillIsInRecourseAndWaiting
		}
		if st.requestToPayWaiting.Waiting {
			return ErrBillIsRequestedToPayAndWaitingForPayment
		}
		if !st.offerToSellWaiting.Waiting {
			return ErrBillNotOfferedToSell
		}
		if callerID != st.offerToSellWaiting.Info.Buyer.NodeID {
			return ErrCallerIsNotBuyer
		}

	case ActionRejectToPayRecourse:
		if chain.GetLatestBlock().BlockOpCode() == bill.OpRejectToPayRecourse {
			return ErrBillWasRejectedToPayRecourse
		}
		if st.offerToSellWaiting.Waiting {
			return ErrBillIsOfferedToSellAndWaiting
		}
		if chain.GetLatestBlock().BlockOpCode() != bill.OpRequestRecourse || !st.recourseWaiting.Waiting {
			return ErrBillNotRequestedToRecourse
		}
		if callerID != st.recourseWaiting.Info.Recoursee.NodeID {
			return ErrCallerIsNotRecoursee
		}

	default:
		return ErrInvalidAction
	}

	return nil
}

// billBlocked reports whether the bill currently has an open payment
// window (offer-to-sell, recourse or request-to-pay) that freezes every other action until
// the payment reconciler settles it or the window expires.
func billBlocked(st *state) (bool, error) {
	if st.offerToSellWaiting.Waiting {
		return true, ErrBillIsOfferedToSellAndWaiting
	}
	if st.recourseWaiting.Waiting {
		return true, ErrBillIsInRecourseAndWaiting
	}
	if st.requestToPayWaiting.Waiting {
		return true, ErrBillIsRequestedToPayAndWaitingForPayment
	}
	return false, nil
}

// recourseeWasHolder confirms action.Recoursee previously held the bill,
// since recourse can only be invoked against a past endorsee.
func recourseeWasHolder(chain *bill.Chain, billPriv *btcec.PrivateKey, action Action) error {
	past, err := GetPastEndorseesForBill(chain, billPriv, "")
	if err != nil {
		return err
	}
	for _, pe := range past {
		if pe.Participant.NodeID == action.Recoursee.NodeID {
			return nil
		}
	}
	return ErrRecourseeNotPastHolder
}
