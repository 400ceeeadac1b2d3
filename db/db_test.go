package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/onnwee/chatfilter/cache"
)

func TestArchiveRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres archive test")
	}
	a, err := Connect(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run must be a no-op.
	if err := a.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	rec := cache.Record{
		Participant: "alice",
		Text:        "urgent archive test",
		Channel:     "#chan",
		Kind:        "channelmessage",
		Time:        time.Now(),
		Matches:     []string{"urgent"},
		Corr:        "test-corr",
	}
	if err := a.ArchiveCaught(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Idempotent on the dedup id.
	if err := a.ArchiveCaught(ctx, rec); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
}
