package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/wallet-payload/internal/model"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketUpgrades = []byte("upgrades") // sequence (big-endian) -> entry JSON
)

// Events
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Entry is one journal record
type Entry struct {
	Sequence uint64        `json:"-"`
	Version  model.Version `json:"version"`
	Event    string        `json:"event"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// Journal is an append-only log of upgrade workflow runs
type Journal struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the journal database at path
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUpgrades)
		return err
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to create buckets: %w (additionally failed to close journal: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the journal
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordStart records that the workflow for v started
func (j *Journal) RecordStart(v model.Version) error {
	return j.append(Entry{Version: v, Event: EventStarted})
}

// RecordResult records the outcome of the workflow for v
func (j *Journal) RecordResult(v model.Version, result error) error {
	if result != nil {
		return j.append(Entry{Version: v, Event: EventFailed, Error: result.Error()})
	}
	return j.append(Entry{Version: v, Event: EventCompleted})
}

// Entries returns all records in insertion order
func (j *Journal) Entries() ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUpgrades).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			e.Sequence = binary.BigEndian.Uint64(k)
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// LastCompleted returns the most recently completed version, if any
func (j *Journal) LastCompleted() (model.Version, bool, error) {
	var (
		last  model.Version
		found bool
	)
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketUpgrades).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			if e.Event == EventCompleted {
				last, found = e.Version, true
				return nil
			}
		}
		return nil
	})
	return last, found, err
}

func (j *Journal) append(e Entry) error {
	e.At = j.now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUpgrades)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}
