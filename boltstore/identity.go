package boltstore

import (
	"context"
	"encoding/json"

	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/store"
	bolt "go.etcd.io/bbolt"
)

// GetIdentityChain implements store.IdentityChainStore.
func (d *DB) GetIdentityChain(_ context.Context) (*identity.Chain, error) {
	var blocks []*identity.Block
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(identityBucket).Get(identityChainKey)
		if raw == nil {
			return store.ErrChainNotFound
		}
		return json.Unmarshal(raw, &blocks)
	})
	if err != nil {
		return nil, err
	}
	return identity.FromBlocks(blocks), nil
}

// SaveIdentityChain implements store.IdentityChainStore.
func (d *DB) SaveIdentityChain(_ context.Context, chain *identity.Chain) error {
	raw, err := json.Marshal(chain.Blocks())
	if err != nil {
		return err
	}
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(identityBucket).Put(identityChainKey, raw)
	})
}

// GetIdentityPrivateKeyHex implements store.IdentityKeyStore.
func (d *DB) GetIdentityPrivateKeyHex(_ context.Context) (string, error) {
	var hexKey string
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(identityKeyBucket).Get(identityKeyKey)
		if raw == nil {
			return store.ErrChainNotFound
		}
		hexKey = string(raw)
		return nil
	})
	return hexKey, err
}

// SaveIdentityPrivateKeyHex persists the local node's own signing key. Not
// part of the store.IdentityKeyStore interface (that's read-only from
// billservice's perspective) — called once, at node setup.
func (d *DB) SaveIdentityPrivateKeyHex(_ context.Context, hexKey string) error {
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(identityKeyBucket).Put(identityKeyKey, []byte(hexKey))
	})
}
