package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/use-agent/winnow/winnow"
)

var bucketFingerprints = []byte("fingerprints")

// record is the on-disk form of a cached fingerprint.
type record struct {
	CreatedAt int64           `json:"created_at"`
	Snapshot  winnow.Snapshot `json:"fingerprint"`
}

// Store persists fingerprints in a BoltDB file so they survive restarts.
type Store struct {
	db *bolt.DB
}

// OpenStore opens or creates the store at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache: create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFingerprints)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: initialize store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get loads the fingerprint stored under key if it was written after
// notBefore.
func (s *Store) Get(key string, notBefore time.Time) (*winnow.Fingerprint, time.Time, bool, error) {
	var rec record
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFingerprints).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("cache: read %s: %w", key, err)
	}
	created := time.Unix(rec.CreatedAt, 0)
	if !found || created.Before(notBefore) {
		return nil, time.Time{}, false, nil
	}
	return winnow.FromSnapshot(rec.Snapshot), created, true, nil
}

// Put writes fp under key.
func (s *Store) Put(key string, fp *winnow.Fingerprint, createdAt time.Time) error {
	data, err := json.Marshal(record{CreatedAt: createdAt.Unix(), Snapshot: fp.Snapshot()})
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFingerprints).Put([]byte(key), data)
	})
}

// Prune deletes records written before cutoff and returns how many it removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFingerprints)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || time.Unix(rec.CreatedAt, 0).Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketFingerprints).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
