package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/store"
	bolt "go.etcd.io/bbolt"
)

// GetChain implements store.ChainStore.
func (d *DB) GetChain(_ context.Context, billID string) (*bill.Chain, error) {
	var blocks []*bill.Block
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(chainsBucket).Get([]byte(billID))
		if raw == nil {
			return store.ErrChainNotFound
		}
		return json.Unmarshal(raw, &blocks)
	})
	if err != nil {
		return nil, err
	}
	return bill.FromBlocks(blocks), nil
}

// SaveChain implements store.ChainStore.
func (d *DB) SaveChain(_ context.Context, billID string, chain *bill.Chain) error {
	raw, err := json.Marshal(chain.Blocks())
	if err != nil {
		return fmt.Errorf("boltstore: marshal chain for bill %s: %w", billID, err)
	}
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chainsBucket).Put([]byte(billID), raw)
	})
}

// ChainExists implements store.ChainStore.
func (d *DB) ChainExists(_ context.Context, billID string) (bool, error) {
	var exists bool
	err := d.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(chainsBucket).Get([]byte(billID)) != nil
		return nil
	})
	return exists, err
}

// AllBillIDs implements store.ChainStore.
func (d *DB) AllBillIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := d.View(func(tx *bolt.Tx) error {
		return tx.Bucket(chainsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// GetKeys implements store.KeyStore. It returns (nil, nil) when billID has
// no stored keypair, leaving the "is this bill known at all" judgment to
// the caller (billservice.Service.billPrivateKey turns that into
// ErrNoPrivateKeyForBill).
func (d *DB) GetKeys(_ context.Context, billID string) (*bill.Keys, error) {
	var keys *bill.Keys
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(keysBucket).Get([]byte(billID))
		if raw == nil {
			return nil
		}
		keys = &bill.Keys{}
		return json.Unmarshal(raw, keys)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// SaveKeys implements store.KeyStore.
func (d *DB) SaveKeys(_ context.Context, billID string, keys *bill.Keys) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("boltstore: marshal keys for bill %s: %w", billID, err)
	}
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(keysBucket).Put([]byte(billID), raw)
	})
}
