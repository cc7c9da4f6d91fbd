package boltstore

import (
	"context"

	bolt "go.etcd.io/bbolt"
)

// IsPaid implements store.PaidStore.
func (d *DB) IsPaid(_ context.Context, address string) (bool, error) {
	var paid bool
	err := d.View(func(tx *bolt.Tx) error {
		paid = tx.Bucket(paidBucket).Get([]byte(address)) != nil
		return nil
	})
	return paid, err
}

// MarkPaid implements store.PaidStore.
func (d *DB) MarkPaid(_ context.Context, address string) error {
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(paidBucket).Put([]byte(address), []byte{1})
	})
}
