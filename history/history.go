// Package history keeps a local record of completed transcriptions.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "t:"

// Entry is one completed transcription.
type Entry struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Language     string    `json:"language"`
	Engine       string    `json:"engine"`
	AudioSeconds float64   `json:"audio_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists entries in a badger database under dir.
type Store struct {
	db *badger.DB
}

func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores the entry, assigning its ID and timestamp. Keys are ordered
// by creation time so iteration walks the history chronologically.
func (s *Store) Append(e Entry) (Entry, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	val, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding history entry: %w", err)
	}
	key := []byte(keyPrefix + e.CreatedAt.Format(time.RFC3339Nano) + ":" + e.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("writing history entry: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every real key.
		for it.Seek([]byte(keyPrefix + "\xff")); it.Valid() && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Count reports the number of stored entries.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return count, nil
}

// Prune removes the oldest entries until at most keep remain.
func (s *Store) Prune(keep int) error {
	count, err := s.Count()
	if err != nil {
		return err
	}
	excess := count - keep
	if excess <= 0 {
		return nil
	}

	var victims [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(victims) < excess; it.Next() {
			victims = append(victims, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("selecting prune victims: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range victims {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
