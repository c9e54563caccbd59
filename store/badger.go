package store

import (
	"context"
	"fmt"

	"secretbox/logger"
	"secretbox/models"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"
)

const badgerPrefix = "secret:"

// Badger stores secrets in an embedded badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens the database at path. An empty path keeps everything in memory.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	logger.Info("badger initialized", logger.FieldKV("path", path), logger.FieldKV("in_memory", path == ""))
	return NewBadger(db), nil
}

func NewBadger(db *badger.DB) *Badger { return &Badger{db: db} }

// badgerKey is "secret:{created_at unix nanos, 19 digits}:{message_id}" so lexical
// order is chronological and same-nanosecond writes do not collide.
func badgerKey(msg models.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", badgerPrefix, msg.CreatedAt.UnixNano(), msg.MessageID))
}

func (b *Badger) Insert(_ context.Context, msg models.Message) error {
	value, err := bson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := badgerKey(msg)
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, value)
	})
}

// Recent walks the keyspace backwards from the newest key.
func (b *Badger) Recent(_ context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}
	out := make([]models.Message, 0, limit)
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(badgerPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			var msg models.Message
			err := it.Item().Value(func(v []byte) error {
				return bson.Unmarshal(v, &msg)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("badger is closed")
	}
	return nil
}

func (b *Badger) Close(context.Context) error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}
