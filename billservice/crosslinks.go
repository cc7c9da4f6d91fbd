package billservice

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
)

// identityChainHasLink reports whether idChain already carries a
// SignPersonBill or SignCompanyBill entry for the given bill block, so a
// retried append never produces a duplicate link.
func identityChainHasLink(
	idChain *identity.Chain, ownerPriv *btcec.PrivateKey, billID string, blockID uint64, blockHash, opCode string,
) (bool, error) {
	for _, b := range idChain.Blocks() {
		if b.BlockOpCode() != identity.OpSignPersonBill && b.BlockOpCode() != identity.OpSignCompanyBill {
			continue
		}
		plaintext, err := ecies.Decrypt(b.Data, ownerPriv)
		if err != nil {
			return false, fmt.Errorf("billservice: decrypt identity block %d: %w", b.BlockID(), err)
		}

		var bID, bHash, bOp string
		var bBlockID uint64
		switch b.BlockOpCode() {
		case identity.OpSignPersonBill:
			d, err := identity.DecodeSignPersonBill(plaintext)
			if err != nil {
				return false, err
			}
			bID, bBlockID, bHash, bOp = d.BillID, d.BlockID, d.BlockHash, d.OperationCode
		case identity.OpSignCompanyBill:
			d, err := identity.DecodeSignCompanyBill(plaintext)
			if err != nil {
				return false, err
			}
			bID, bBlockID, bHash, bOp = d.BillID, d.BlockID, d.BlockHash, d.OperationCode
		}
		if bID == billID && bBlockID == blockID && bHash == blockHash && bOp == opCode {
			return true, nil
		}
	}
	return false, nil
}

// companyChainHasLink reports whether companyChain already carries a
// SignCompanyBill entry for the given bill block.
func companyChainHasLink(
	companyChain *company.Chain, companyPriv *btcec.PrivateKey, billID string, blockID uint64, blockHash, opCode string,
) (bool, error) {
	for _, b := range companyChain.Blocks() {
		if b.BlockOpCode() != company.OpSignCompanyBill {
			continue
		}
		plaintext, err := ecies.Decrypt(b.Data, companyPriv)
		if err != nil {
			return false, fmt.Errorf("billservice: decrypt company block %d: %w", b.BlockID(), err)
		}
		d, err := company.DecodeSignCompanyBill(plaintext)
		if err != nil {
			return false, err
		}
		if d.BillID == billID && d.BlockID == blockID && d.BlockHash == blockHash && d.OperationCode == opCode {
			return true, nil
		}
	}
	return false, nil
}

// RepairCrossChainLinks re-links billID's current chain tip into by's
// identity chain and, if by acted for a company, that company's chain, for
// whichever side is missing the link. It is safe to call after a prior
// appendBlock partially failed (the bill block landed but linkIntoActorChains
// did not finish), and safe to call again afterward: the checks above make
// it idempotent on (bill id, block id, block hash, op code).
func (svc *Service) RepairCrossChainLinks(ctx context.Context, billID string, by Signer) error {
	chain, err := svc.chains.GetChain(ctx, billID)
	if err != nil {
		return err
	}
	tip := chain.GetLatestBlock()

	signerKeys, err := svc.resolveSignerKeys(ctx)
	if err != nil {
		return err
	}

	idChain, err := svc.identityChain(ctx)
	if err != nil {
		return err
	}
	now := svc.clock.Now()

	if by.Company == nil {
		linked, err := identityChainHasLink(idChain, signerKeys.PrivateKey(), billID, tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()))
		if err != nil {
			return err
		}
		if linked {
			return nil
		}
		linkBlock, err := identity.NewSignPersonBillBlock(
			idChain.GetLatestBlock().BlockID()+1, by.Person.NodeID, billID,
			tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()),
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

	companyChain, err := svc.companyChainFor(ctx, by.Company.NodeID)
	if err != nil {
		return err
	}
	if companyChain == nil {
		return fmt.Errorf("billservice: no chain known for company %s", by.Company.NodeID)
	}

	companyPriv, err := svc.companyPrivateKey(ctx, by.Company.NodeID)
	if err != nil {
		return err
	}
	companyLinked, err := companyChainHasLink(companyChain, companyPriv, billID, tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()))
	if err != nil {
		return err
	}
	if !companyLinked {
		companyPub, err := keys.FromPublicKeyHex(by.Company.NodeID)
		if err != nil {
			return fmt.Errorf("billservice: company node id is not a valid public key: %w", err)
		}
		companyLink, err := company.NewSignCompanyBillBlock(
			companyChain.GetLatestBlock().BlockID()+1, by.Company.NodeID, billID,
			tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()),
			now, companyChain.GetLatestBlock().BlockHash(), companyPub, signerKeys,
		)
		if err != nil {
			return err
		}
		if !companyChain.TryAddBlock(companyLink) {
			return fmt.Errorf("billservice: company link block failed to extend chain")
		}
		if err := svc.companies.SaveCompanyChain(ctx, by.Company.NodeID, companyChain); err != nil {
			return err
		}
	}

	identityLinked, err := identityChainHasLink(idChain, signerKeys.PrivateKey(), billID, tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()))
	if err != nil {
		return err
	}
	if identityLinked {
		return nil
	}
	identityLink, err := identity.NewSignCompanyBillBlock(
		idChain.GetLatestBlock().BlockID()+1, by.Person.NodeID, by.Company.NodeID, billID,
		tip.BlockID(), tip.BlockHash(), string(tip.BlockOpCode()),
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
