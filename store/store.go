package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"secretbox/config"
	"secretbox/logger"
	"secretbox/metrics"
	"secretbox/models"

	"github.com/google/uuid"
)

// ErrStorage matches every StorageError via errors.Is.
var ErrStorage = errors.New("storage failure")

// ErrInvalidMessage is returned by Create when text or sender is empty.
var ErrInvalidMessage = errors.New("message text and sender are required")

// StorageError wraps a backend failure. It never reaches end users.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Backend is an append-only message collection.
type Backend interface {
	Insert(ctx context.Context, msg models.Message) error
	// Recent returns at most limit messages, newest first.
	Recent(ctx context.Context, limit int) ([]models.Message, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// MessageStore owns the secrets collection. Writes surface StorageError to the caller;
// reads never fail from the caller's point of view.
type MessageStore struct {
	backend   Backend
	validator Validator
	now       func() time.Time
	newID     func() string
}

// Validator checks a fully built record before it is written.
type Validator interface {
	Validate(msg models.Message) error
}

type Option func(*MessageStore)

// WithValidator rejects records that fail v with a StorageError (Op "validate").
func WithValidator(v Validator) Option {
	return func(s *MessageStore) { s.validator = v }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MessageStore) { s.now = now }
}

func NewMessageStore(b Backend, opts ...Option) *MessageStore {
	s := &MessageStore{backend: b, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create persists a new record stamped with the current time. The returned Message is
// populated even when the write fails, so callers can dead-letter it.
func (s *MessageStore) Create(ctx context.Context, text, sender string) (models.Message, error) {
	if text == "" || sender == "" {
		return models.Message{}, ErrInvalidMessage
	}
	msg := models.Message{
		MessageID: s.newID(),
		Text:      text,
		Sender:    sender,
		CreatedAt: s.now().UTC(),
	}
	if s.validator != nil {
		if err := s.validator.Validate(msg); err != nil {
			return msg, &StorageError{Op: "validate", Err: err}
		}
	}
	if err := s.backend.Insert(ctx, msg); err != nil {
		return msg, &StorageError{Op: "create", Err: err}
	}
	return msg, nil
}

// ListRecent returns up to limit messages, newest first. A read failure is logged and
// reported as an empty list.
func (s *MessageStore) ListRecent(ctx context.Context, limit int) []models.Message {
	if limit <= 0 {
		return []models.Message{}
	}
	msgs, err := s.backend.Recent(ctx, limit)
	if err != nil {
		metrics.IncStoreReadFailure()
		logger.Error("list recent secrets failed", &StorageError{Op: "list", Err: err}, logger.FieldKV("limit", limit))
		return []models.Message{}
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs
}

func (s *MessageStore) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

func (s *MessageStore) Close(ctx context.Context) error { return s.backend.Close(ctx) }

// Open builds the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGODB_URI is not set")
		}
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.DriverBadger:
		return OpenBadger(cfg.BadgerPath)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
