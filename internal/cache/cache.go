// Package cache keeps the per-asset incremental build cache.
//
// Entries are keyed by build-file and stored as JSON in BoltDB. An entry
// says which build last produced an asset from which inputs; the build
// driver skips the asset when the hash still matches and the host module
// still holds every generated type the entry lists.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// FileName is the cache database name inside the intermediate directory.
	FileName = "cache.db"

	bucketName = "assets"
)

// Cache manages per-asset entries using BoltDB.
type Cache struct {
	db *bbolt.DB
}

// Open opens or creates the cache inside dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, FileName), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the entry for buildFile when its hash equals hash.
// Returns nil on a miss.
func (c *Cache) Get(buildFile, hash string) (*Entry, error) {
	entry, err := c.Lookup(buildFile)
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Hash != hash {
		return nil, nil
	}
	return entry, nil
}

// Lookup returns the entry for buildFile regardless of its hash.
func (c *Cache) Lookup(buildFile string) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(buildFile))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, fmt.Errorf("read cache entry %s: %w", buildFile, err)
	}
	if entry.Hash == "" {
		return nil, nil
	}
	return &entry, nil
}

// Put stores entry, replacing any entry for the same build-file.
func (c *Cache) Put(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(entry.BuildFile), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for buildFile. Missing entries are not an
// error.
func (c *Cache) Delete(buildFile string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(buildFile))
	})
}

// BuildFiles returns every cached build-file in key order.
func (c *Cache) BuildFiles() ([]string, error) {
	var files []string
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			files = append(files, string(k))
			return nil
		})
	})
	return files, err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Len returns the number of entries.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return n, err
}
