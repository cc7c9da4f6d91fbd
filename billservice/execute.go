package billservice

import (
	"context"
	"fmt"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// ExecuteBillAction validates action against billID's current state and, if
// it passes, appends the corresponding block, links it into the acting
// identity's (or company's) own chain, and fires the notification the
// action implies. Callers own serializing concurrent actions against the
// same bill; ExecuteBillAction itself does not lock.
func (svc *Service) ExecuteBillAction(ctx context.Context, billID string, action Action) (*BitcreditBillResult, error) {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return nil, err
	}
	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return nil, err
	}
	b, err := chain.GetFirstVersionBill(billPriv)
	if err != nil {
		return nil, err
	}
	now := svc.clock.Now()
	st, err := svc.projectState(ctx, chain, billPriv, now)
	if err != nil {
		return nil, err
	}

	if err := svc.validate(chain, billPriv, b, st, action); err != nil {
		return nil, err
	}

	newBlock, err := svc.appendBlock(ctx, chain, billID, action, st, b)
	if err != nil {
		return nil, err
	}

	if err := svc.notifyForAction(ctx, billID, b, st, action, newBlock); err != nil {
		log.Warnf("bill %s: notify after %s failed: %v", billID, action.Kind, err)
	}

	return svc.GetFullBill(ctx, billID)
}

// IssueParams is everything needed to issue a brand new bill.
type IssueParams struct {
	Bill   bill.Bill
	By     Signer
	Keys   *keys.BcrKeys // the bill's own keypair, freshly generated by the caller
}

// IssueBill creates billID's genesis block from params, persists its
// keypair and chain, links the cross-chain SignPersonBill/SignCompanyBill
// record, and — when the bill was drawn with drawer and drawee being the
// same node — immediately appends the Accept block too, since a drawee
// cannot meaningfully refuse to accept their own draft.
func (svc *Service) IssueBill(ctx context.Context, params IssueParams) (*BitcreditBillResult, error) {
	now := svc.clock.Now()
	billPub := params.Keys.PublicKey()

	signerKeys, err := svc.resolveSignerKeys(ctx)
	if err != nil {
		return nil, err
	}

	issuePayload := &bill.IssueBlockData{Bill: params.Bill, Signer: signerOf(Action{By: params.By}, now)}
	genesis, err := bill.NewBlock(1, params.Bill.ID, issuePayload, now, "", billPub, signerKeys)
	if err != nil {
		return nil, err
	}

	chain := bill.NewChain(genesis)
	if err := svc.keys.SaveKeys(ctx, params.Bill.ID, &bill.Keys{
		PrivateKey: params.Keys.PrivateKeyHex(),
		PublicKey:  params.Keys.PublicKeyHex(),
	}); err != nil {
		return nil, err
	}
	if err := svc.chains.SaveChain(ctx, params.Bill.ID, chain); err != nil {
		return nil, err
	}

	if err := svc.linkIntoActorChains(ctx, Action{By: params.By}, params.Bill.ID, genesis, signerKeys); err != nil {
		return nil, err
	}

	if err := svc.notifyBillSigned(ctx, &params.Bill, genesis); err != nil {
		log.Warnf("bill %s: notify after issue failed: %v", params.Bill.ID, err)
	}

	if params.Bill.Drawer.NodeID == params.Bill.Drawee.NodeID {
		if _, err := svc.ExecuteBillAction(ctx, params.Bill.ID, Action{Kind: ActionAccept, By: params.By}); err != nil {
			return nil, fmt.Errorf("billservice: auto-accept on issue: %w", err)
		}
	}

	return svc.GetFullBill(ctx, params.Bill.ID)
}
