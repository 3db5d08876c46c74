// Package archive records which parts of which items have already been saved, so that repeated runs over the same
// playlist or channel only fetch what is new.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

var Buckets = struct {
	Metadata []byte
	Records  []byte
}{
	Metadata: []byte("__metadata__"),
	Records:  []byte("records"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

var (
	ErrInvalidRecord      = errors.New("invalid record")
	ErrUnsupportedVersion = errors.New("unsupported archive version")
)

// A Record says that one part of one item was saved.
type Record struct {
	ItemID   string    `json:"item_id"`
	Part     string    `json:"part"`
	Title    string    `json:"title"`
	StreamID string    `json:"stream_id,omitempty"`
	Path     string    `json:"path,omitempty"`
	RunID    string    `json:"run_id"`
	SavedAt  time.Time `json:"saved_at"`
}

func (r *Record) Key() []byte {
	return recordKey(r.ItemID, r.Part)
}

func recordKey(itemID, part string) []byte {
	return []byte(itemID + "/" + part)
}

type Archive interface {
	// Get the record for a part of an item, or nil if there is none.
	Get(itemID, part string) (*Record, error)
	Put(*Record) error
	List() ([]Record, error)
	Delete(itemID, part string) error
	Close() error
}

// Nil is an Archive that remembers nothing.
type Nil struct{}

func (Nil) Get(string, string) (*Record, error) {
	return nil, nil
}

func (Nil) Put(*Record) error {
	return nil
}

func (Nil) List() ([]Record, error) {
	return nil, nil
}

func (Nil) Delete(string, string) error {
	return nil
}

func (Nil) Close() error {
	return nil
}

type database struct {
	*bbolt.DB
}

// Open the archive at path, creating it if it doesn't exist.
func Open(path string) (_ Archive, err error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Records); err != nil {
			return err
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}

		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &database{db}, nil
}

func (d *database) Get(itemID, part string) (record *Record, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(Buckets.Records).Get(recordKey(itemID, part))
		if data == nil {
			return nil
		}
		record = &Record{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (d *database) Put(record *Record) error {
	if record.ItemID == "" || record.Part == "" || strings.Contains(record.ItemID, "/") {
		return fmt.Errorf("%w: %q/%q", ErrInvalidRecord, record.ItemID, record.Part)
	}
	if data, err := json.Marshal(record); err != nil {
		return err
	} else {
		return d.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(Buckets.Records).Put(record.Key(), data)
		})
	}
}

func (d *database) List() (records []Record, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Records).ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("record %s: %w", k, err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (d *database) Delete(itemID, part string) error {
	return d.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Records).Delete(recordKey(itemID, part))
	})
}

// Forget deletes every record of an item, so the next run saves all of its parts again. It returns how many records
// were deleted.
func Forget(a Archive, itemID string) (int, error) {
	records, err := a.List()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, record := range records {
		if record.ItemID != itemID {
			continue
		}
		if err := a.Delete(record.ItemID, record.Part); err != nil {
			return deleted, fmt.Errorf("failed to forget %s/%s: %w", record.ItemID, record.Part, err)
		}
		deleted++
	}
	return deleted, nil
}
