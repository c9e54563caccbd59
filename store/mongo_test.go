package store

import (
	"context"
	"os"
	"testing"
	"time"

	"secretbox/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Structural tests run everywhere; the round trip needs MONGODB_URI.

func TestMongoPingWithoutClient(t *testing.T) {
	if err := (&Mongo{}).Ping(context.Background()); err == nil {
		t.Fatalf("expected error when ping before connect")
	}
}

func TestMongoInsertWithoutCollection(t *testing.T) {
	if err := (&Mongo{}).Insert(context.Background(), models.Message{MessageID: "id"}); err == nil {
		t.Fatalf("expected error when inserting before connect")
	}
}

func TestMongoRecentWithoutCollection(t *testing.T) {
	if _, err := (&Mongo{}).Recent(context.Background(), 10); err == nil {
		t.Fatalf("expected error when listing before connect")
	}
}

func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping: MONGODB_URI not set")
	}
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	m, err := OpenMongo(ctx, uri, "secretbox_test", "messages_"+uuid.NewString()[:8])
	req.NoError(err)
	defer func() {
		_ = m.coll.Drop(context.Background())
		_ = m.Close(context.Background())
	}()
	req.NoError(m.Ping(ctx))

	at := time.Now().UTC().Truncate(time.Millisecond)
	for i, text := range []string{"t1", "t2", "t3"} {
		req.NoError(m.Insert(ctx, models.Message{
			MessageID: uuid.NewString(), Text: text, Sender: "Ghost Cat 🐾", CreatedAt: at.Add(time.Duration(i) * time.Second),
		}))
	}
	got, err := m.Recent(ctx, 200)
	req.NoError(err)
	req.Equal([]string{"t3", "t2", "t1"}, texts(got))

	got, err = m.Recent(ctx, 2)
	req.NoError(err)
	req.Len(got, 2)
}

func TestMongoSameMillisecondLaterFirst(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping: MONGODB_URI not set")
	}
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	m, err := OpenMongo(ctx, uri, "secretbox_test", "messages_"+uuid.NewString()[:8])
	req.NoError(err)
	defer func() {
		_ = m.coll.Drop(context.Background())
		_ = m.Close(context.Background())
	}()

	at := time.Now().UTC()
	for _, text := range []string{"first", "second", "third"} {
		req.NoError(m.Insert(ctx, models.Message{
			MessageID: uuid.NewString(), Text: text, Sender: "s", CreatedAt: at,
		}))
	}
	got, err := m.Recent(ctx, 10)
	req.NoError(err)
	req.Equal([]string{"third", "second", "first"}, texts(got))
}
