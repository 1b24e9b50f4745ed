package badger

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
)

var (
	prefixEvent        = []byte("event/")
	prefixEventId      = []byte("event_id/")
	prefixCheckpoint   = []byte("checkpoint/")
	prefixIndexerState = []byte("indexer_state/")
)

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// Open opens the badger database described by config.
func Open(config Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, errors.Wrapf(err, "database at %s is locked by another process", config.Path)
		}
		return nil, errors.Wrapf(err, "can't open database at %s", config.Path)
	}
	return db, nil
}

type Repository struct {
	db  *badger.DB
	txn *badger.Txn // non-nil inside BeginBRC8888Tx
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) view(fn func(txn *badger.Txn) error) error {
	if r.txn != nil {
		return fn(r.txn)
	}
	return r.db.View(fn)
}

func (r *Repository) update(fn func(txn *badger.Txn) error) error {
	if r.txn != nil {
		return fn(r.txn)
	}
	return r.db.Update(fn)
}

func sequenceKey(prefix []byte, sequence uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], sequence)
	return key
}

func eventIdKey(inscriptionId string) []byte {
	key := make([]byte, 0, len(prefixEventId)+len(inscriptionId))
	key = append(key, prefixEventId...)
	return append(key, inscriptionId...)
}

// seekLast positions a reverse iterator on the greatest key with prefix lower than or equal to key.
func seekLast(txn *badger.Txn, prefix, key []byte, fn func(item *badger.Item) error) (bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Seek(key)
	if !it.ValidForPrefix(prefix) {
		return false, nil
	}
	return true, fn(it.Item())
}

// lastKey is a seek key that sorts after every sequence key with prefix.
func lastKey(prefix []byte) []byte {
	return sequenceKey(prefix, ^uint64(0))
}

// deleteFrom deletes every key with prefix at or after start, calling onDelete with each value first.
func deleteFrom(txn *badger.Txn, prefix, start []byte, onDelete func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if onDelete != nil {
			if err := item.Value(onDelete); err != nil {
				it.Close()
				return errors.WithStack(err)
			}
		}
		keys = append(keys, item.KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return errors.Wrap(err, "failed to delete key")
		}
	}
	return nil
}
