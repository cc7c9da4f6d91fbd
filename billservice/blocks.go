package billservice

import (
	"context"
	"fmt"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// payloadFor builds the op-specific payload for action, given the current
// holder/drawee context st already carries.
func payloadFor(action Action, st *state, b *bill.Bill, now uint64) (bill.Payload, error) {
	s := signerOf(action, now)

	switch action.Kind {
	case ActionAccept:
		return &bill.AcceptBlockData{Accepter: b.Drawee, Signer: s}, nil
	case ActionRequestToAccept:
		return &bill.RequestToAcceptBlockData{Requester: st.holder, Signer: s}, nil
	case ActionRequestToPay:
		return &bill.RequestToPayBlockData{Requester: st.holder, Currency: action.Currency, Signer: s}, nil
	case ActionOfferToSell:
		return &bill.OfferToSellBlockData{
			Seller: st.holder, Buyer: *action.Buyer, Sum: action.Sum, Currency: action.Currency,
			PaymentAddress: action.PaymentAddress, Signer: s,
		}, nil
	case ActionEndorse:
		return &bill.EndorseBlockData{Endorser: st.holder, Endorsee: *action.Endorsee, Signer: s}, nil
	case ActionMint:
		return &bill.MintBlockData{
			Endorser: st.holder, Endorsee: *action.Endorsee, Sum: action.Sum, Currency: action.Currency, Signer: s,
		}, nil
	case ActionRequestRecourse:
		return &bill.RequestRecourseBlockData{
			Recourser: st.holder, Recoursee: *action.Recoursee, Sum: action.Sum, Currency: action.Currency,
			Reason: action.RecourseReason, Signer: s,
		}, nil
	case ActionRejectToAccept:
		return &bill.RejectToAcceptBlockData{RejectBlockData: bill.RejectBlockData{Rejecter: b.Drawee, Signer: s}}, nil
	case ActionRejectToPay:
		return &bill.RejectToPayBlockData{RejectBlockData: bill.RejectBlockData{Rejecter: b.Drawee, Signer: s}}, nil
	case ActionRejectToBuy:
		return &bill.RejectToBuyBlockData{RejectBlockData: bill.RejectBlockData{Rejecter: st.offerToSellWaiting.Info.Buyer, Signer: s}}, nil
	case ActionRejectToPayRecourse:
		return &bill.RejectToPayRecourseBlockData{RejectBlockData: bill.RejectBlockData{Rejecter: st.recourseWaiting.Info.Recoursee, Signer: s}}, nil
	case actionSell:
		info := st.offerToSellWaiting.Info
		return &bill.SellBlockData{
			Seller: info.Seller, Buyer: info.Buyer, Sum: info.Sum, Currency: info.Currency,
			PaymentAddress: info.PaymentAddress, Signer: s,
		}, nil
	case actionRecourse:
		info := st.recourseWaiting.Info
		return &bill.RecourseBlockData{
			Recourser: info.Recourser, Recoursee: info.Recoursee, Sum: info.Sum, Currency: info.Currency, Signer: s,
		}, nil
	default:
		return nil, fmt.Errorf("billservice: no payload builder for action %q", action.Kind)
	}
}

// signerOf reduces an Action's acting party into a payload's embedded
// Signer block: populated only when a company signatory acted (a direct
// personal signature needs no extra attribution, since the block's own
// signatory_node_id already says who signed).
func signerOf(action Action, now uint64) bill.Signer {
	if action.By.Company == nil {
		return bill.Signer{SigningTimestamp: now}
	}
	person := action.By.Person
	addr := action.By.Company.PostalAddress
	return bill.Signer{Signatory: &person, SigningTimestamp: now, SigningAddress: &addr}
}

// appendBlock builds and appends the next block for action, links it into
// the acting identity's (and, if a company acted, the company's) own
// chain, and persists everything. It returns the new chain tip.
func (svc *Service) appendBlock(
	ctx context.Context, chain *bill.Chain, billID string, action Action, st *state, b *bill.Bill,
) (*bill.Block, error) {
	now := svc.clock.Now()
	payload, err := payloadFor(action, st, b, now)
	if err != nil {
		return nil, err
	}

	billPriv, err := svc.billPrivateKey(ctx, billID)
	if err != nil {
		return nil, err
	}
	billPub := billPriv.PubKey()

	signerKeys, err := svc.resolveSignerKeys(ctx)
	if err != nil {
		return nil, err
	}

	tip := chain.GetLatestBlock()
	newBlock, err := bill.NewBlock(
		tip.BlockID()+1, billID, payload, now, tip.BlockHash(), billPub, signerKeys,
	)
	if err != nil {
		return nil, err
	}
	if !chain.TryAddBlock(newBlock) {
		return nil, fmt.Errorf("billservice: constructed block failed to extend chain")
	}

	if err := svc.chains.SaveChain(ctx, billID, chain); err != nil {
		return nil, err
	}

	if err := svc.linkIntoActorChains(ctx, action, billID, newBlock, signerKeys); err != nil {
		return nil, err
	}

	return newBlock, nil
}

// resolveSignerKeys fetches the secp256k1 keypair that will actually
// produce the block's detached signature. A company has no private key of
// its own, only its chain's public key for encryption — when a company
// acts, the signature is still the human signatory's own, with the
// company's identity carried separately in the payload's Signer field.
func (svc *Service) resolveSignerKeys(ctx context.Context) (*keys.BcrKeys, error) {
	privHex, err := svc.identityKeys.GetIdentityPrivateKeyHex(ctx)
	if err != nil {
		return nil, err
	}
	return keys.FromPrivateKeyHex(privHex)
}

// controlsParticipant reports whether this node may act as participant:
// either participant is this node's own personal identity, or participant
// is a company this node holds a chain for (companyChainFor only returns
// one when this node is a known signatory).
func (svc *Service) controlsParticipant(ctx context.Context, participant bill.Participant) (bool, error) {
	signerKeys, err := svc.resolveSignerKeys(ctx)
	if err != nil {
		return false, err
	}
	if participant.NodeID == signerKeys.PublicKeyHex() {
		return true, nil
	}
	if participant.Type != bill.ParticipantCompany {
		return false, nil
	}
	companyChain, err := svc.companyChainFor(ctx, participant.NodeID)
	if err != nil {
		return false, err
	}
	return companyChain != nil, nil
}

// linkIntoActorChains repairs the cross-chain link for a freshly appended
// bill block: a SignPersonBill block on the signer's own identity chain,
// or, when a company acted, a SignCompanyBill block on the company's chain
// plus a matching SignCompanyBill block (carrying the company id) on the
// signatory's own identity chain.
func (svc *Service) linkIntoActorChains(
	ctx context.Context, action Action, billID string, newBlock *bill.Block, signerKeys *keys.BcrKeys,
) error {
	idChain, err := svc.identityChain(ctx)
	if err != nil {
		return err
	}
	now := svc.clock.Now()
	blockID, blockHash, opCode := newBlock.BlockID(), newBlock.BlockHash(), string(newBlock.BlockOpCode())

	if action.By.Company == nil {
		linked, err := identityChainHasLink(idChain, signerKeys.PrivateKey(), billID, blockID, blockHash, opCode)
		if err != nil {
			return err
		}
		if linked {
			return nil
		}
		linkBlock, err := identity.NewSignPersonBillBlock(
			idChain.GetLatestBlock().BlockID()+1, action.By.Person.NodeID, billID,
			blockID, blockHash, opCode,
			now, idChain.GetLatestBlock().BlockHash(), signerKeys.PublicKey(), signerKeys,
		)
		if err != nil {
			return err
		}
		if !idChain.TryAddBlock(linkBlock) {
			return fmt.Errorf("billservice: identity link block failed to extend chain")
		}
		return svc.identities.SaveIdentityChain(ctx, idChain)
	}

	companyChain, err := svc.companyChainFor(ctx, action.By.Company.NodeID)
	if err != nil {
		return err
	}
	if companyChain == nil {
		return fmt.Errorf("billservice: no chain known for company %s", action.By.Company.NodeID)
	}

	if companyPriv, err := svc.companyPrivateKey(ctx, action.By.Company.NodeID); err == nil {
		linked, err := companyChainHasLink(companyChain, companyPriv, billID, blockID, blockHash, opCode)
		if err != nil {
			return err
		}
		if !linked {
			if err := svc.appendCompanyLink(ctx, companyChain, action.By.Company.NodeID, billID, blockID, blockHash, opCode, now, signerKeys); err != nil {
				return err
			}
		}
	} else {
		// This signatory was never entrusted with the company's own
		// private key, so its chain can't be checked for idempotency
		// here; append unconditionally, as the original behavior did.
		if err := svc.appendCompanyLink(ctx, companyChain, action.By.Company.NodeID, billID, blockID, blockHash, opCode, now, signerKeys); err != nil {
			return err
		}
	}

	identityLinked, err := identityChainHasLink(idChain, signerKeys.PrivateKey(), billID, blockID, blockHash, opCode)
	if err != nil {
		return err
	}
	if identityLinked {
		return nil
	}
	identityLink, err := identity.NewSignCompanyBillBlock(
		idChain.GetLatestBlock().BlockID()+1, action.By.Person.NodeID, action.By.Company.NodeID, billID,
		blockID, blockHash, opCode,
		now, idChain.GetLatestBlock().BlockHash(), signerKeys.PublicKey(), signerKeys,
	)
	if err != nil {
		return err
	}
	if !idChain.TryAddBlock(identityLink) {
		return fmt.Errorf("billservice: identity link block failed to extend chain")
	}
	return svc.identities.SaveIdentityChain(ctx, idChain)
}

// appendCompanyLink builds and appends a SignCompanyBill block to
// companyChain and persists it.
func (svc *Service) appendCompanyLink(
	ctx context.Context, companyChain *company.Chain, companyNodeID, billID string,
	blockID uint64, blockHash, opCode string, now uint64, signerKeys *keys.BcrKeys,
) error {
	companyPub, err := keys.FromPublicKeyHex(companyNodeID)
	if err != nil {
		return fmt.Errorf("billservice: company node id is not a valid public key: %w", err)
	}
	companyLink, err := company.NewSignCompanyBillBlock(
		companyChain.GetLatestBlock().BlockID()+1, companyNodeID, billID,
		blockID, blockHash, opCode,
		now, companyChain.GetLatestBlock().BlockHash(), companyPub, signerKeys,
	)
	if err != nil {
		return err
	}
	if !companyChain.TryAddBlock(companyLink) {
		return fmt.Errorf("billservice: company link block failed to extend chain")
	}
	return svc.companies.SaveCompanyChain(ctx, companyNodeID, companyChain)
}
