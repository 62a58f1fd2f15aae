package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Bolt is a TabularStore backed by a bbolt database. Each logical table maps
// to one bucket; keys are big-endian sequence numbers so cursor order equals
// insertion order.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens a bbolt-backed store.
func OpenBolt(dbPath string) (*Bolt, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// AppendRow adds a row to the end of a table.
func (b *Bolt) AppendRow(table string, row Row) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", table, err)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		return bucket.Put(itob(int64(seq)), data)
	})
}

// ReadAll returns every row of a table in insertion order.
func (b *Bolt) ReadAll(table string) ([]Row, error) {
	var out []Row
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var row Row
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("failed to unmarshal row: %w", err)
			}
			out = append(out, row)
			return nil
		})
	})
	return out, err
}

// OverwriteRow replaces the row at the given position.
func (b *Bolt) OverwriteRow(table string, index int, row Row) error {
	if index < 0 {
		return ErrRowOutOfRange
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return ErrRowOutOfRange
		}

		key, err := keyAt(bucket, index)
		if err != nil {
			return err
		}

		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		return bucket.Put(key, data)
	})
}

// DeleteRow removes the row at the given position.
func (b *Bolt) DeleteRow(table string, index int) error {
	if index < 0 {
		return ErrRowOutOfRange
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return ErrRowOutOfRange
		}

		key, err := keyAt(bucket, index)
		if err != nil {
			return err
		}
		return bucket.Delete(key)
	})
}

// keyAt walks the bucket cursor to the key at the given position.
func keyAt(bucket *bolt.Bucket, index int) ([]byte, error) {
	c := bucket.Cursor()
	i := 0
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if i == index {
			// Copy the key since it's only valid during the transaction.
			key := make([]byte, len(k))
			copy(key, k)
			return key, nil
		}
		i++
	}
	return nil, ErrRowOutOfRange
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
