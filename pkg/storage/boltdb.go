package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketConfig       = []byte("config")
	bucketFingerprints = []byte("fingerprints")
	bucketMigrations   = []byte("migrations")
)

// ErrNotFound is returned by lookups of absent keys
var ErrNotFound = errors.New("not found")

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens or creates the state database at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketConfig, bucketFingerprints, bucketMigrations} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// PreviousValue returns the value last recorded for a configuration key
func (s *BoltStore) PreviousValue(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketConfig).Get([]byte(key))
		if data != nil {
			value, found = string(data), true
		}
		return nil
	})
	return value, found, err
}

func (s *BoltStore) SetPreviousValue(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConfig).Put([]byte(key), []byte(value))
	})
}

// Fingerprint operations
func (s *BoltStore) GetFingerprint(resource string) (*Fingerprint, error) {
	var fp Fingerprint
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFingerprints).Get([]byte(resource))
		if data == nil {
			return fmt.Errorf("fingerprint %s: %w", resource, ErrNotFound)
		}
		return json.Unmarshal(data, &fp)
	})
	if err != nil {
		return nil, err
	}
	return &fp, nil
}

func (s *BoltStore) PutFingerprint(fp *Fingerprint) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(fp)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketFingerprints).Put([]byte(fp.Resource), data)
	})
}

func (s *BoltStore) DeleteFingerprint(resource string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFingerprints).Delete([]byte(resource))
	})
}

func (s *BoltStore) ListFingerprints() ([]*Fingerprint, error) {
	var fps []*Fingerprint
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFingerprints).ForEach(func(k, v []byte) error {
			var fp Fingerprint
			if err := json.Unmarshal(v, &fp); err != nil {
				return err
			}
			fps = append(fps, &fp)
			return nil
		})
	})
	return fps, err
}

// Migration operations
func (s *BoltStore) GetMigration(name string) (*Migration, error) {
	var m Migration
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMigrations).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("migration %s: %w", name, ErrNotFound)
		}
		return json.Unmarshal(data, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMigration records a migration as completed now. Marking twice keeps
// the first completion time.
func (s *BoltStore) MarkMigration(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMigrations)
		if b.Get([]byte(name)) != nil {
			return nil
		}
		data, err := json.Marshal(&Migration{Name: name, CompletedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return b.Put([]byte(name), data)
	})
}
