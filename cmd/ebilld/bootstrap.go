package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/boltstore"
	"github.com/hubertusvie/bcr-ebilld/clock"
	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/hubertusvie/bcr-ebilld/store"
)

// ensureIdentity loads the node's own identity, creating a fresh one (a new
// keypair plus a genesis Create block) on first run. Every subsequent
// ebilld invocation against the same data directory reuses it.
func ensureIdentity(ctx context.Context, db *boltstore.DB, name, email string) (*keys.BcrKeys, error) {
	hexKey, err := db.GetIdentityPrivateKeyHex(ctx)
	if err == nil {
		return keys.FromPrivateKeyHex(hexKey)
	}
	if !errors.Is(err, store.ErrChainNotFound) {
		return nil, fmt.Errorf("ebilld: load identity key: %w", err)
	}

	ownerKeys, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("ebilld: generate identity key: %w", err)
	}
	nodeID := ownerKeys.PublicKeyHex()

	genesis, err := identity.NewCreateBlock(nodeID, name, email, clock.Default{}.Now(), ownerKeys.PublicKey(), ownerKeys)
	if err != nil {
		return nil, fmt.Errorf("ebilld: create identity genesis block: %w", err)
	}
	chain := identity.NewChain(genesis)

	if err := db.SaveIdentityPrivateKeyHex(ctx, ownerKeys.PrivateKeyHex()); err != nil {
		return nil, err
	}
	if err := db.SaveIdentityChain(ctx, chain); err != nil {
		return nil, err
	}

	log.Infof("ebilld: bootstrapped new identity %s", nodeID)
	return ownerKeys, nil
}
