// Package localcache implements a read-through chunk cache in front of any
// chunkstore.ChunkStore, adapted from the teacher's embedded key/value
// database layer (fluid/db). Where that layer exposed named buckets for
// several kinds of application data, this one needs exactly one: raw
// chunk bytes keyed by their content hash, so the Database interface here
// is trimmed to Get/Put/Delete/Close and drops Batch/Scan/Count, which
// the chunk cache never needs.
package localcache

import (
	"fmt"
)

// Driver names for Open.
const (
	BoltDBDriver  = "boltdb"
	LevelDBDriver = "leveldb"
)

// DriverNames lists the drivers Open accepts.
var DriverNames = []string{BoltDBDriver, LevelDBDriver}

// bucket is the single BoltDB bucket chunk bytes live in.
const bucket = "chunks"

// Database is the embedded key/value store contract a cache driver must
// satisfy. Get returns (nil, nil) for a missing key, matching the
// teacher's LevelDB driver convention rather than a found/not-found error.
type Database interface {
	Close() error
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Open initializes the named driver against path.
func Open(driver, path string) (Database, error) {
	switch driver {
	case BoltDBDriver:
		db := new(BoltDB)
		if err := db.init(path); err != nil {
			return nil, err
		}
		return db, nil
	case LevelDBDriver:
		db := new(LevelDB)
		if err := db.init(path); err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("localcache: unknown database driver %q", driver)
	}
}
