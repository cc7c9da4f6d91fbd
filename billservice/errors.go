package billservice

import "errors"

// Errors a bill action can fail with. Kept as a flat sentinel set (rather
// than an enum-with-payload) so callers branch with errors.Is, the same
// shape channeldb/error.go uses for its own store-level failures — only the
// named conditions differ, not the taxonomy's style.
var (
	ErrBillNotFound = errors.New("billservice: bill not found")

	ErrCallerIsNotDrawee    = errors.New("billservice: caller is not the drawee")
	ErrCallerIsNotHolder    = errors.New("billservice: caller is not the current holder")
	ErrCallerIsNotBuyer     = errors.New("billservice: caller is not the named buyer")
	ErrCallerIsNotSeller    = errors.New("billservice: caller is not the named seller")
	ErrCallerIsNotRecoursee = errors.New("billservice: caller is not the named recoursee")
	ErrCallerIsNotRecourser = errors.New("billservice: caller is not the current holder invoking recourse")

	ErrBillAlreadyAccepted            = errors.New("billservice: bill is already accepted")
	ErrBillWasRejectedToAccept        = errors.New("billservice: bill was rejected to accept")
	ErrBillWasRejectedToPay           = errors.New("billservice: bill was rejected to pay")
	ErrBillWasRejectedToBuy           = errors.New("billservice: bill was rejected to buy")
	ErrBillWasRejectedToPayRecourse   = errors.New("billservice: bill was rejected to pay on recourse")
	ErrBillAlreadyPaid                = errors.New("billservice: bill is already paid")
	ErrBillAlreadyRequestedToAccept   = errors.New("billservice: bill already has an open request to accept")
	ErrBillAlreadyRequestedToPay      = errors.New("billservice: bill already has an open request to pay")
	ErrBillAlreadyOfferedToSell       = errors.New("billservice: bill already has an open offer to sell")
	ErrBillAlreadyRequestedRecourse   = errors.New("billservice: bill already has an open recourse request")
	ErrBillIsOfferedToSellAndWaiting  = errors.New("billservice: bill is offered to sell and waiting for payment")
	ErrBillIsInRecourseAndWaiting     = errors.New("billservice: bill is in recourse and waiting for payment")
	ErrBillIsRequestedToPayAndWaitingForPayment = errors.New("billservice: bill is requested to pay and waiting for payment")
	ErrBillNotAccepted                = errors.New("billservice: bill has not been accepted")
	ErrBillNotOfferedToSell           = errors.New("billservice: bill has no open offer to sell")
	ErrBillNotRequestedToRecourse     = errors.New("billservice: bill has no open recourse request")
	ErrBillNotRequestedToAccept       = errors.New("billservice: bill was not requested to accept")
	ErrBillNotRequestedToPay          = errors.New("billservice: bill was not requested to pay")
	ErrBillRequestToAcceptDidNotExpireAndWasNotRejected = errors.New("billservice: bill's request to accept has not expired and was not rejected")
	ErrBillRequestToPayDidNotExpireAndWasNotRejected    = errors.New("billservice: bill's request to pay has not expired and was not rejected")
	ErrBillWaitingForOfferToSell      = errors.New("billservice: bill is waiting for an offer-to-sell payment")
	ErrBillWaitingForRecoursePayment  = errors.New("billservice: bill is waiting for a recourse payment")

	ErrDraweeCannotBeBuyer     = errors.New("billservice: the drawee cannot be the buyer of their own bill")
	ErrRecourseeNotPastHolder  = errors.New("billservice: recoursee was never a holder of this bill")
	ErrRequestAlreadyExpired   = errors.New("billservice: the request this action answers has already expired")
	ErrInvalidSumCurrency      = errors.New("billservice: sum or currency does not match the bill")

	ErrInvalidAction = errors.New("billservice: action is not valid for this bill's current state")

	ErrFileTooLarge    = errors.New("billservice: attached file exceeds the maximum allowed size")
	ErrInvalidMimeType = errors.New("billservice: attached file has an unsupported content type")
	ErrFileNameTooLong = errors.New("billservice: attached file name is too long")

	ErrNoPrivateKeyForBill = errors.New("billservice: no private key known for this bill")
)
