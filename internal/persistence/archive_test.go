package persistence

import (
	"context"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

func newSQLiteTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&NoteRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	archive, err := NewSQLiteArchive(SQLiteArchiveConfig{
		Database: db,
		Clock:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("failed to construct archive: %v", err)
	}
	return archive
}

func archiveNote(id string) canvas.Note {
	created := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	return canvas.Note{
		ID:        id,
		OwnerID:   "participant-1",
		OwnerName: "Ada",
		Text:      "hello",
		X:         12.5,
		Y:         -4,
		Color:     "#FF6B6B",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestNewSQLiteArchiveRequiresDatabase(t *testing.T) {
	if _, err := NewSQLiteArchive(SQLiteArchiveConfig{}); err == nil {
		t.Fatalf("expected construction to fail without a database")
	}
}

func TestSQLiteArchivePutGetRoundTrip(t *testing.T) {
	archive := newSQLiteTestArchive(t)
	ctx := context.Background()

	if err := archive.Put(ctx, archiveNote("note-1")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	stored, ok, err := archive.Get(ctx, "note-1")
	if err != nil || !ok {
		t.Fatalf("expected stored note, ok=%v err=%v", ok, err)
	}
	if stored.Text != "hello" || stored.OwnerID != "participant-1" || stored.X != 12.5 {
		t.Fatalf("unexpected stored note: %+v", stored)
	}

	if _, ok, err := archive.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absence for unknown id, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteArchivePatchAppliesOnlySetFields(t *testing.T) {
	archive := newSQLiteTestArchive(t)
	ctx := context.Background()

	if err := archive.Put(ctx, archiveNote("note-1")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	text := "edited"
	found, err := archive.Patch(ctx, "note-1", canvas.NoteUpdate{Text: &text})
	if err != nil || !found {
		t.Fatalf("expected patch to apply, found=%v err=%v", found, err)
	}

	stored, _, err := archive.Get(ctx, "note-1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if stored.Text != "edited" {
		t.Fatalf("expected patched text, got %q", stored.Text)
	}
	if stored.X != 12.5 || stored.Y != -4 {
		t.Fatalf("unset fields must not change: %+v", stored)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("expected updated_at refresh, got %v", stored.UpdatedAt)
	}

	if found, err := archive.Patch(ctx, "missing", canvas.NoteUpdate{Text: &text}); err != nil || found {
		t.Fatalf("expected absence for unknown id, found=%v err=%v", found, err)
	}
}

func TestSQLiteArchiveDeleteAndList(t *testing.T) {
	archive := newSQLiteTestArchive(t)
	ctx := context.Background()

	first := archiveNote("note-1")
	second := archiveNote("note-2")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	if err := archive.Put(ctx, first); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := archive.Put(ctx, second); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	notes, err := archive.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != "note-1" {
		t.Fatalf("expected creation-ordered listing, got %v", notes)
	}

	existed, err := archive.Delete(ctx, "note-1")
	if err != nil || !existed {
		t.Fatalf("expected delete of existing note, existed=%v err=%v", existed, err)
	}
	existed, err = archive.Delete(ctx, "note-1")
	if err != nil || existed {
		t.Fatalf("expected absence on repeated delete, existed=%v err=%v", existed, err)
	}
}

func TestMemoryArchiveBehavesLikeProvider(t *testing.T) {
	archive := NewMemoryArchive()
	ctx := context.Background()

	if err := archive.Put(ctx, archiveNote("note-1")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	y := 77.0
	found, err := archive.Patch(ctx, "note-1", canvas.NoteUpdate{Y: &y})
	if err != nil || !found {
		t.Fatalf("expected patch to apply, found=%v err=%v", found, err)
	}

	stored, ok, err := archive.Get(ctx, "note-1")
	if err != nil || !ok {
		t.Fatalf("expected stored note, ok=%v err=%v", ok, err)
	}
	if stored.Y != 77 || stored.Text != "hello" {
		t.Fatalf("unexpected patched note: %+v", stored)
	}

	existed, err := archive.Delete(ctx, "note-1")
	if err != nil || !existed {
		t.Fatalf("expected delete of existing note, existed=%v err=%v", existed, err)
	}
	notes, err := archive.ListAll(ctx)
	if err != nil || len(notes) != 0 {
		t.Fatalf("expected empty archive, notes=%v err=%v", notes, err)
	}
}
