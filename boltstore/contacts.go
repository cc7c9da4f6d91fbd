package boltstore

import (
	"context"
	"encoding/json"

	"github.com/hubertusvie/bcr-ebilld/store"
	bolt "go.etcd.io/bbolt"
)

// Resolve implements store.ContactResolver.
func (d *DB) Resolve(_ context.Context, nodeID string) (*store.Contact, error) {
	var contact *store.Contact
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(contactsBucket).Get([]byte(nodeID))
		if raw == nil {
			return nil
		}
		contact = &store.Contact{}
		return json.Unmarshal(raw, contact)
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// SaveContact upserts what's known locally about a node id. Not part of
// store.ContactResolver (read-only from billservice's perspective) — called
// by whatever onboards a new counterparty (the transport layer, on first
// successful handshake, or an operator-facing address-book command).
func (d *DB) SaveContact(_ context.Context, contact store.Contact) error {
	raw, err := json.Marshal(contact)
	if err != nil {
		return err
	}
	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(contactsBucket).Put([]byte(contact.NodeID), raw)
	})
}
