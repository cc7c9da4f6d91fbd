// Package boltstore is the engine's on-disk persistence: a single bbolt
// file holding every bill chain, every bill's own keypair, the local node's
// identity chain and signing key, every company chain it signs for, and the
// two dedup markers (notifications already sent, addresses already credited)
// the engine needs to stay idempotent across restarts. Grounded on
// channeldb's DB wrapper (open/create/bucket layout), re-pointed at
// go.etcd.io/bbolt since the upstream boltdb fork is unmaintained.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	bolt "go.etcd.io/bbolt"
)

const (
	dbName           = "ebill.db"
	dbFilePermission = 0600
)

var (
	chainsBucket      = []byte("bill-chains")
	keysBucket        = []byte("bill-keys")
	identityBucket    = []byte("identity-chain")
	identityKeyBucket = []byte("identity-key")
	companiesBucket   = []byte("company-chains")
	companyKeysBucket = []byte("company-keys")
	notifiedBucket    = []byte("notified")
	paidBucket        = []byte("paid")
	contactsBucket    = []byte("contacts")

	// identityChainKey is the single key the identity chain is stored
	// under: a node has exactly one identity.
	identityChainKey = []byte("self")
	identityKeyKey   = []byte("self")
)

// DB is the engine's bbolt-backed store. It implements every interface in
// package store; pass it directly as a billservice.Config's Chains, Keys,
// Identities, IdentityKeys, Companies, Notified, Paid and Contacts fields.
type DB struct {
	*bolt.DB
	dbPath string
}

// Open opens (creating if necessary) the bbolt file under dbPath.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, fmt.Errorf("boltstore: create data dir: %w", err)
	}
	path := filepath.Join(dbPath, dbName)

	bdb, err := bolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	db := &DB{DB: bdb, dbPath: dbPath}
	if err := db.createBuckets(); err != nil {
		bdb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) createBuckets() error {
	return d.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			chainsBucket, keysBucket, identityBucket, identityKeyBucket,
			companiesBucket, companyKeysBucket, notifiedBucket, paidBucket, contactsBucket,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
