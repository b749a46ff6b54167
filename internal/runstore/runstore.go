// Package runstore keeps a persistent history of fit runs. It uses BoltDB as
// the storage engine and records one document per run: the dataset, the
// resolved configuration snapshot, how many members were built, and how long
// the build took. Range queries by time support comparing runs over the life
// of a dataset.
//
// This is a diagnostics store, not a trained-model format; models themselves
// are never serialized here.
package runstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const runsBucket = "runs"

// Record describes one completed fit run.
type Record struct {
	Dataset        string        `json:"dataset"`
	Timestamp      time.Time     `json:"timestamp"`
	Members        int           `json:"members"`
	TotalIntervals int           `json:"total_intervals"`
	Seed           int64         `json:"seed"`
	BuildDuration  time.Duration `json:"build_duration"`
	TrainScore     float64       `json:"train_score"`
	Config         string        `json:"config"`
}

// Store provides persistent run-history storage.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the run store under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "forest-runs.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreRun appends one run record, keyed dataset_timestamp for efficient
// range scans.
func (s *Store) StoreRun(rec Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.Dataset, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetRuns retrieves run records for a dataset within a time range, inclusive
// on both ends, in timestamp order.
func (s *Store) GetRuns(dataset string, start, end time.Time) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		c := b.Cursor()

		prefix := []byte(dataset + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", dataset, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", dataset, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
