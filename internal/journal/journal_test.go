package journal_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/momentics/embedded-ws/internal/journal"
)

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j, err := journal.Open(ctx, filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if err := j.Record(ctx, 0, true, []byte("first")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, 3, false, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, 1, true, nil); err != nil {
		t.Fatalf("Record empty: %v", err)
	}

	n, err := j.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d entries", len(got))
	}
	if got[0].Slot != 1 || len(got[0].Payload) != 0 {
		t.Errorf("newest = %+v", got[0])
	}
	if got[1].Slot != 3 || got[1].Text || string(got[1].Payload) != "\x01\x02" {
		t.Errorf("second = %+v", got[1])
	}
	if got[1].At.IsZero() {
		t.Error("timestamp lost")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "messages.db")
	j, err := journal.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.Record(ctx, 2, true, []byte("persist"))
	j.Close()

	j, err = journal.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, err := j.Recent(ctx, 10)
	if err != nil || len(got) != 1 || string(got[0].Payload) != "persist" {
		t.Fatalf("after reopen: %+v, %v", got, err)
	}
}
