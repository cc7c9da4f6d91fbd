package boltstore

import (
	"context"

	"github.com/hubertusvie/bcr-ebilld/store"
	bolt "go.etcd.io/bbolt"
)

// GetCompanyPrivateKeyHex implements store.CompanyKeyStore.
func (d *DB) GetCompanyPrivateKeyHex(_ context.Context, companyID string) (string, error) {
	var hexKey string
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(companyKeysBucket).Get([]byte(companyID))
		if raw == nil {
			return store.ErrChainNotFound
		}
		hexKey = string(raw)
		return nil
	})
	return hexKey, err
}

// SaveCompanyPrivateKeyHex persists companyID's own private key, for
// whichever signatory was entrusted with it at creation time. Not part of
// store.CompanyKeyStore (read-only from billservice's perspective).
func (d *DB) SaveCompanyPrivateKeyHex(_ context.Context, companyID, hexKey string) error {
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(companyKeysBucket).Put([]byte(companyID), []byte(hexKey))
	})
}
