package bill

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain"
)

// Chain is a single bill's append-only history. It wraps the generic
// blockchain.Chain with the bill-specific traversals billservice's
// validator, payment reconciler and projections need: who is on the bill,
// who holds it now, and whether a pending offer-to-sell or
// request-recourse is still within its payment window.
type Chain struct {
	*blockchain.Chain[OpCode, *Block]
}

// NewChain starts a bill's chain from its issue block.
func NewChain(genesis *Block) *Chain {
	return &Chain{blockchain.NewChain[OpCode, *Block](genesis)}
}

// FromBlocks reconstructs a chain from blocks already known to be in order,
// e.g. when loading from a store.
func FromBlocks(blocks []*Block) *Chain {
	return &Chain{blockchain.FromBlocks[OpCode, *Block](blocks)}
}

// GetFirstVersionBill decrypts the genesis block and returns the bill as it
// was originally drawn. Every later block only ever changes holdership or
// records an action against this fixed issuance.
func (c *Chain) GetFirstVersionBill(billPriv *btcec.PrivateKey) (*Bill, error) {
	genesis := c.GetFirstBlock()
	if genesis.BlockOpCode() != OpIssue {
		return nil, fmt.Errorf("bill: genesis block has op code %q, not Issue", genesis.BlockOpCode())
	}
	payload, err := genesis.DecryptPayload(billPriv)
	if err != nil {
		return nil, err
	}
	issue, ok := payload.(*IssueBlockData)
	if !ok {
		return nil, fmt.Errorf("bill: genesis payload is %T, not *IssueBlockData", payload)
	}
	b := issue.Bill
	return &b, nil
}

// holderOpCodes is every op code whose payload names the bill's new
// holder, in the order GetHolderFromBlock understands them.
var holderOpCodes = map[OpCode]bool{
	OpIssue:    true,
	OpEndorse:  true,
	OpMint:     true,
	OpSell:     true,
	OpRecourse: true,
}

// GetHolderFromBlock returns the participant who became the bill's holder
// as a result of block, and the signer who acted for them (nil if they
// acted directly). Only Issue, Endorse, Mint, Sell and Recourse blocks
// transfer holdership; any other op code is an error.
func GetHolderFromBlock(block *Block, billPriv *btcec.PrivateKey) (Participant, *Participant, error) {
	if !holderOpCodes[block.BlockOpCode()] {
		return Participant{}, nil, fmt.Errorf("bill: block op code %q does not change holder", block.BlockOpCode())
	}
	payload, err := block.DecryptPayload(billPriv)
	if err != nil {
		return Participant{}, nil, err
	}
	switch p := payload.(type) {
	case *IssueBlockData:
		return p.Payee, p.Signatory, nil
	case *EndorseBlockData:
		return p.Endorsee, p.Signatory, nil
	case *MintBlockData:
		return p.Endorsee, p.Signatory, nil
	case *SellBlockData:
		return p.Buyer, p.Signatory, nil
	case *RecourseBlockData:
		return p.Recoursee, p.Signatory, nil
	default:
		return Participant{}, nil, fmt.Errorf("bill: unexpected payload type %T for op code %q", p, block.BlockOpCode())
	}
}

// GetHolderFromBlock decrypts the chain's own copy of billPriv-encrypted
// block and delegates to the package-level function of the same name.
func (c *Chain) GetHolderFromBlock(block *Block, billPriv *btcec.PrivateKey) (Participant, *Participant, error) {
	return GetHolderFromBlock(block, billPriv)
}

// GetEndorsementsCount counts every holdership transfer after issuance:
// Endorse, Mint, Sell and Recourse blocks. Issue itself does not count as
// an endorsement.
func (c *Chain) GetEndorsementsCount() int {
	count := 0
	for _, b := range c.Blocks() {
		switch b.BlockOpCode() {
		case OpEndorse, OpMint, OpSell, OpRecourse:
			count++
		}
	}
	return count
}

// GetAllNodesFromBill returns the node id of every participant who has ever
// appeared on the bill: drawee, drawer, payee, every endorser/endorsee,
// buyer/seller, recourser/recoursee, and every signatory who acted for one
// of them. Order is first-appearance, each id once.
func (c *Chain) GetAllNodesFromBill(billPriv *btcec.PrivateKey) ([]string, error) {
	seen := make(map[string]bool)
	var nodes []string
	add := func(nodeID string) {
		if nodeID == "" || seen[nodeID] {
			return
		}
		seen[nodeID] = true
		nodes = append(nodes, nodeID)
	}
	addParticipant := func(p Participant) { add(p.NodeID) }
	addSigner := func(s *Participant) {
		if s != nil {
			add(s.NodeID)
		}
	}

	for _, b := range c.Blocks() {
		payload, err := b.DecryptPayload(billPriv)
		if err != nil {
			return nil, err
		}
		switch p := payload.(type) {
		case *IssueBlockData:
			addParticipant(p.Drawee)
			addParticipant(p.Drawer)
			addParticipant(p.Payee)
			addSigner(p.Signatory)
		case *AcceptBlockData:
			addParticipant(p.Accepter)
			addSigner(p.Signatory)
		case *RequestToAcceptBlockData:
			addParticipant(p.Requester)
			addSigner(p.Signatory)
		case *RequestToPayBlockData:
			addParticipant(p.Requester)
			addSigner(p.Signatory)
		case *OfferToSellBlockData:
			addParticipant(p.Seller)
			addParticipant(p.Buyer)
			addSigner(p.Signatory)
		case *SellBlockData:
			addParticipant(p.Seller)
			addParticipant(p.Buyer)
			addSigner(p.Signatory)
		case *EndorseBlockData:
			addParticipant(p.Endorser)
			addParticipant(p.Endorsee)
			addSigner(p.Signatory)
		case *MintBlockData:
			addParticipant(p.Endorser)
			addParticipant(p.Endorsee)
			addSigner(p.Signatory)
		case *RequestRecourseBlockData:
			addParticipant(p.Recourser)
			addParticipant(p.Recoursee)
			addSigner(p.Signatory)
		case *RecourseBlockData:
			addParticipant(p.Recourser)
			addParticipant(p.Recoursee)
			addSigner(p.Signatory)
		case *RejectToAcceptBlockData:
			addParticipant(p.Rejecter)
			addSigner(p.Signatory)
		case *RejectToPayBlockData:
			addParticipant(p.Rejecter)
			addSigner(p.Signatory)
		case *RejectToBuyBlockData:
			addParticipant(p.Rejecter)
			addSigner(p.Signatory)
		case *RejectToPayRecourseBlockData:
			addParticipant(p.Rejecter)
			addSigner(p.Signatory)
		}
	}
	return nodes, nil
}

// PaymentInfo is what a pending offer-to-sell is waiting on.
type PaymentInfo struct {
	Seller         Participant
	Buyer          Participant
	Sum            uint64
	Currency       string
	PaymentAddress string
	Deadline       uint64
}

// OfferToSellWaitingForPayment is the result of checking whether a bill's
// most recent offer-to-sell is still within its payment window.
type OfferToSellWaitingForPayment struct {
	Waiting bool
	Info    PaymentInfo
}

// IsLastOfferToSellBlockWaitingForPayment reports whether the chain's last
// block is an OfferToSell whose payment deadline (its signing timestamp
// plus paymentDeadlineSeconds) has not yet passed at now. A later block of
// any kind means the offer was already settled or superseded, so only the
// chain tail is ever "waiting".
func (c *Chain) IsLastOfferToSellBlockWaitingForPayment(
	billPriv *btcec.PrivateKey, now, paymentDeadlineSeconds uint64,
) (OfferToSellWaitingForPayment, error) {
	last := c.GetLatestBlock()
	if last.BlockOpCode() != OpOfferToSell {
		return OfferToSellWaitingForPayment{}, nil
	}
	payload, err := last.DecryptPayload(billPriv)
	if err != nil {
		return OfferToSellWaitingForPayment{}, err
	}
	offer, ok := payload.(*OfferToSellBlockData)
	if !ok {
		return OfferToSellWaitingForPayment{}, fmt.Errorf("bill: last block payload is %T, not *OfferToSellBlockData", payload)
	}
	deadline := offer.SigningTimestamp + paymentDeadlineSeconds
	if now > deadline {
		return OfferToSellWaitingForPayment{}, nil
	}
	return OfferToSellWaitingForPayment{
		Waiting: true,
		Info: PaymentInfo{
			Seller:         offer.Seller,
			Buyer:          offer.Buyer,
			Sum:            offer.Sum,
			Currency:       offer.Currency,
			PaymentAddress: offer.PaymentAddress,
			Deadline:       deadline,
		},
	}, nil
}

// RecoursePaymentInfo is what a pending recourse request is waiting on.
type RecoursePaymentInfo struct {
	Recourser Participant
	Recoursee Participant
	Sum       uint64
	Currency  string
	Deadline  uint64
}

// RecourseWaitingForPayment is the result of checking whether a bill's most
// recent request-recourse is still within its payment window.
type RecourseWaitingForPayment struct {
	Waiting bool
	Info    RecoursePaymentInfo
}

// IsLastRequestToRecourseBlockWaitingForPayment mirrors
// IsLastOfferToSellBlockWaitingForPayment for the RequestRecourse/Recourse
// pair.
func (c *Chain) IsLastRequestToRecourseBlockWaitingForPayment(
	billPriv *btcec.PrivateKey, now, recourseDeadlineSeconds uint64,
) (RecourseWaitingForPayment, error) {
	last := c.GetLatestBlock()
	if last.BlockOpCode() != OpRequestRecourse {
		return RecourseWaitingForPayment{}, nil
	}
	payload, err := last.DecryptPayload(billPriv)
	if err != nil {
		return RecourseWaitingForPayment{}, err
	}
	req, ok := payload.(*RequestRecourseBlockData)
	if !ok {
		return RecourseWaitingForPayment{}, fmt.Errorf("bill: last block payload is %T, not *RequestRecourseBlockData", payload)
	}
	deadline := req.SigningTimestamp + recourseDeadlineSeconds
	if now > deadline {
		return RecourseWaitingForPayment{}, nil
	}
	return RecourseWaitingForPayment{
		Waiting: true,
		Info: RecoursePaymentInfo{
			Recourser: req.Recourser,
			Recoursee: req.Recoursee,
			Sum:       req.Sum,
			Currency:  req.Currency,
			Deadline:  deadline,
		},
	}, nil
}

// RequestToPayInfo is what a pending request-to-pay is waiting on.
type RequestToPayInfo struct {
	Requester Participant
	Currency  string
	Deadline  uint64
}

// RequestToPayWaitingForPayment is the result of checking whether a bill's
// most recent request-to-pay is still within its payment window.
type RequestToPayWaitingForPayment struct {
	Waiting bool
	Info    RequestToPayInfo
}

// IsLastRequestToPayBlockWaitingForPayment mirrors
// IsLastOfferToSellBlockWaitingForPayment for the RequestToPay/RejectToPay
// pair: a RejectToPay (or any later block) supersedes the request, and the
// request itself lapses paymentDeadlineSeconds after it was made. The
// request's own sum is not carried in its payload — a bill is only ever
// worth its own Sum, copied in by the caller.
func (c *Chain) IsLastRequestToPayBlockWaitingForPayment(
	billPriv *btcec.PrivateKey, now, paymentDeadlineSeconds uint64,
) (RequestToPayWaitingForPayment, error) {
	last := c.GetLatestBlock()
	if last.BlockOpCode() != OpRequestToPay {
		return RequestToPayWaitingForPayment{}, nil
	}
	payload, err := last.DecryptPayload(billPriv)
	if err != nil {
		return RequestToPayWaitingForPayment{}, err
	}
	req, ok := payload.(*RequestToPayBlockData)
	if !ok {
		return RequestToPayWaitingForPayment{}, fmt.Errorf("bill: last block payload is %T, not *RequestToPayBlockData", payload)
	}
	deadline := req.SigningTimestamp + paymentDeadlineSeconds
	if now > deadline {
		return RequestToPayWaitingForPayment{}, nil
	}
	return RequestToPayWaitingForPayment{
		Waiting: true,
		Info: RequestToPayInfo{
			Requester: req.Requester,
			Currency:  req.Currency,
			Deadline:  deadline,
		},
	}, nil
}

// RequestToAcceptInfo is what a pending request-to-accept is waiting on.
type RequestToAcceptInfo struct {
	Requester Participant
	Deadline  uint64
}

// RequestToAcceptWaiting is the result of checking whether a bill's most
// recent request-to-accept is still within its answer window.
type RequestToAcceptWaiting struct {
	Waiting bool
	Info    RequestToAcceptInfo
}

// IsLastRequestToAcceptBlockWaitingForAccept mirrors the payment-waiting
// checks above for the RequestToAccept/Accept/RejectToAccept trio: an Accept
// or a RejectToAccept (or any later block) answers the request, and the
// request itself lapses acceptDeadlineSeconds after it was made.
func (c *Chain) IsLastRequestToAcceptBlockWaitingForAccept(
	billPriv *btcec.PrivateKey, now, acceptDeadlineSeconds uint64,
) (RequestToAcceptWaiting, error) {
	last := c.GetLatestBlock()
	if last.BlockOpCode() != OpRequestToAccept {
		return RequestToAcceptWaiting{}, nil
	}
	payload, err := last.DecryptPayload(billPriv)
	if err != nil {
		return RequestToAcceptWaiting{}, err
	}
	req, ok := payload.(*RequestToAcceptBlockData)
	if !ok {
		return RequestToAcceptWaiting{}, fmt.Errorf("bill: last block payload is %T, not *RequestToAcceptBlockData", payload)
	}
	deadline := req.SigningTimestamp + acceptDeadlineSeconds
	if now > deadline {
		return RequestToAcceptWaiting{}, nil
	}
	return RequestToAcceptWaiting{
		Waiting: true,
		Info: RequestToAcceptInfo{
			Requester: req.Requester,
			Deadline:  deadline,
		},
	}, nil
}
