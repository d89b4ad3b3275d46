package localcache

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB implements Database, wrapping the LevelDB library (adapted from
// fluid/db/leveldb.go). Unlike the teacher's driver, chunk keys need no
// bucket prefix — this cache only ever holds one kind of entry.
type LevelDB struct {
	db *leveldb.DB
}

func (ldb *LevelDB) init(path string) error {
	var err error
	ldb.db, err = leveldb.OpenFile(path, nil)
	return err
}

// Close closes the underlying LevelDB file.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Get returns the cached bytes for key, or (nil, nil) if absent, matching
// the teacher's leveldb.ErrNotFound translation.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := ldb.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	return val, err
}

// Put stores value under key.
func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Delete removes key, if present.
func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}
