// Package bolt implements the storage gateway on a single bbolt database
// with one bucket per storage area.
package bolt

import (
	"bytes"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-mute/internal/mute/domain"
	"github.com/haukened/rr-mute/internal/mute/repos/store"
)

var (
	bucketLocal = []byte("local")
	bucketSync  = []byte("sync")
)

// boltStore implements store.Gateway using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures both area
// buckets exist.
func New(path string) (store.Gateway, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketLocal); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketSync); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// ActiveArea resolves the active area from the local bucket's enableSync
// value alone. An absent value selects the synchronized area.
func (s *boltStore) ActiveArea() store.AreaID {
	area := store.AreaSync
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if bytes.Equal(activeBucket(tx), bucketLocal) {
			area = store.AreaLocal
		}
		return nil
	})
	return area
}

// Load reads every known key present in the active area and assembles the
// record, applying defaults and legacy fallbacks for absent values.
func (s *boltStore) Load() (domain.Record, error) {
	raw := make(map[string][]byte)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(activeBucket(tx))
		if b == nil {
			return nil
		}
		for _, key := range domain.KnownKeys() {
			if v := b.Get([]byte(key)); v != nil {
				// Bolt values are only valid inside the transaction.
				cp := make([]byte, len(v))
				copy(cp, v)
				raw[key] = cp
			}
		}
		return nil
	})
	if err != nil {
		return domain.EmptyRecord(), err
	}
	return store.DecodeRecord(raw), nil
}

// Save writes the full record to the area selected by the record's own
// EnableSync preference and migrates the other area by deleting every known
// key, current and legacy, in the same transaction. Legacy keys lingering in
// the active area are superseded by the full write and dropped too.
func (s *boltStore) Save(rec domain.Record) error {
	values, err := store.EncodeRecord(rec)
	if err != nil {
		return err
	}

	active, inactive := bucketSync, bucketLocal
	if !rec.Prefs.EnableSync {
		active, inactive = bucketLocal, bucketSync
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ab, err := tx.CreateBucketIfNotExists(active)
		if err != nil {
			return err
		}
		ib, err := tx.CreateBucketIfNotExists(inactive)
		if err != nil {
			return err
		}
		for _, key := range domain.KnownKeys() {
			if err := ib.Delete([]byte(key)); err != nil {
				return err
			}
		}
		for key, val := range values {
			if err := ab.Put([]byte(key), val); err != nil {
				return err
			}
		}
		for _, fb := range domain.PrefFallbacks() {
			if err := ab.Delete([]byte(fb.Legacy)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Empty reports whether the active area holds none of the known keys.
func (s *boltStore) Empty() (bool, error) {
	empty := true
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(activeBucket(tx))
		if b == nil {
			return nil
		}
		for _, key := range domain.KnownKeys() {
			if b.Get([]byte(key)) != nil {
				empty = false
				return nil
			}
		}
		return nil
	})
	return empty, err
}

// activeBucket selects the bucket the record lives in, reading only the
// local bucket's enableSync value.
func activeBucket(tx *bbolt.Tx) []byte {
	if local := tx.Bucket(bucketLocal); local != nil {
		if !store.DecodeEnableSync(local.Get([]byte(domain.KeyEnableSync))) {
			return bucketLocal
		}
	}
	return bucketSync
}

var _ store.Gateway = (*boltStore)(nil)
var _ store.Emptier = (*boltStore)(nil)
