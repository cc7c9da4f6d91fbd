package boltstore

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// notificationKey packs (billID, blockHeight, action) into a single bucket
// key, mirroring channeldb's practice of concatenating a record's natural
// identity into one cursor key rather than nesting a bucket per bill.
func notificationKey(billID string, blockHeight int, action string) []byte {
	return []byte(fmt.Sprintf("%s|%d|%s", billID, blockHeight, action))
}

// WasSent implements store.NotificationStore.
func (d *DB) WasSent(_ context.Context, billID string, blockHeight int, action string) (bool, error) {
	var sent bool
	err := d.View(func(tx *bolt.Tx) error {
		sent = tx.Bucket(notifiedBucket).Get(notificationKey(billID, blockHeight, action)) != nil
		return nil
	})
	return sent, err
}

// MarkSent implements store.NotificationStore.
func (d *DB) MarkSent(_ context.Context, billID string, blockHeight int, action string) error {
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(notifiedBucket).Put(notificationKey(billID, blockHeight, action), []byte{1})
	})
}
