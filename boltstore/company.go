package boltstore

import (
	"context"
	"encoding/json"

	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/store"
	bolt "go.etcd.io/bbolt"
)

// GetCompanyChain implements store.CompanyChainStore.
func (d *DB) GetCompanyChain(_ context.Context, companyID string) (*company.Chain, error) {
	var blocks []*company.Block
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(companiesBucket).Get([]byte(companyID))
		if raw == nil {
			return store.ErrChainNotFound
		}
		return json.Unmarshal(raw, &blocks)
	})
	if err != nil {
		return nil, err
	}
	return company.FromBlocks(blocks), nil
}

// SaveCompanyChain implements store.CompanyChainStore.
func (d *DB) SaveCompanyChain(_ context.Context, companyID string, chain *company.Chain) error {
	raw, err := json.Marshal(chain.Blocks())
	if err != nil {
		return err
	}
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(companiesBucket).Put([]byte(companyID), raw)
	})
}

// AllCompanyIDs implements store.CompanyChainStore.
func (d *DB) AllCompanyIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := d.View(func(tx *bolt.Tx) error {
		return tx.Bucket(companiesBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}
