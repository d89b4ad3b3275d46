package localcache

import (
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

// BoltDB implements Database, wrapping the BoltDB library (adapted from
// fluid/db/boltdb.go).
type BoltDB struct {
	db *bolt.DB
}

func (bdb *BoltDB) init(path string) error {
	var err error

	bdb.db, err = bolt.Open(path, 0644, &bolt.Options{Timeout: 15 * time.Second})
	if err != nil {
		return err
	}

	return bdb.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("localcache: could not create %s bucket: %w", bucket, err)
		}
		return nil
	})
}

// Close closes the underlying BoltDB file.
func (bdb *BoltDB) Close() error {
	return bdb.db.Close()
}

// Get returns the cached bytes for key, or (nil, nil) if absent.
func (bdb *BoltDB) Get(key []byte) ([]byte, error) {
	var val []byte

	err := bdb.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if v := b.Get(key); v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put stores value under key.
func (bdb *BoltDB) Put(key, value []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		return b.Put(key, value)
	})
}

// Delete removes key, if present.
func (bdb *BoltDB) Delete(key []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		return b.Delete(key)
	})
}
