package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

var errMissingDatabase = errors.New("persistence: database handle is required")

// NoteRecord is the flat persisted layout of a note, keyed by note id.
// Timestamps serialize as ISO-8601. There is no schema versioning; any
// format change is a breaking change to stored data.
type NoteRecord struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null"`
	OwnerID   string    `gorm:"column:owner_participant_id;size:190;not null;index"`
	OwnerName string    `gorm:"column:owner_display_name;size:320;not null"`
	Text      string    `gorm:"column:text;type:text;not null"`
	X         float64   `gorm:"column:x;not null"`
	Y         float64   `gorm:"column:y;not null"`
	Color     string    `gorm:"column:assigned_color;size:32;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (NoteRecord) TableName() string {
	return "notes"
}

// SQLiteArchive is the durable NoteArchive backed by a gorm database.
type SQLiteArchive struct {
	db    *gorm.DB
	clock func() time.Time
}

// SQLiteArchiveConfig describes the dependencies for the durable archive.
type SQLiteArchiveConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// NewSQLiteArchive constructs the durable archive.
func NewSQLiteArchive(cfg SQLiteArchiveConfig) (*SQLiteArchive, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SQLiteArchive{db: cfg.Database, clock: clock}, nil
}

// ListAll returns every stored note.
func (a *SQLiteArchive) ListAll(ctx context.Context) ([]canvas.Note, error) {
	var records []NoteRecord
	if err := a.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("persistence: list notes: %w", err)
	}
	notes := make([]canvas.Note, 0, len(records))
	for _, record := range records {
		notes = append(notes, record.toNote())
	}
	return notes, nil
}

// Get returns the note with the given id, or false when absent.
func (a *SQLiteArchive) Get(ctx context.Context, id string) (canvas.Note, bool, error) {
	var record NoteRecord
	err := a.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return canvas.Note{}, false, nil
	}
	if err != nil {
		return canvas.Note{}, false, fmt.Errorf("persistence: get note: %w", err)
	}
	return record.toNote(), true, nil
}

// Put stores or replaces a note.
func (a *SQLiteArchive) Put(ctx context.Context, note canvas.Note) error {
	record := recordFromNote(note)
	if err := a.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("persistence: put note: %w", err)
	}
	return nil
}

// Patch applies only the provided fields and refreshes the update timestamp.
func (a *SQLiteArchive) Patch(ctx context.Context, id string, update canvas.NoteUpdate) (bool, error) {
	columns := map[string]interface{}{
		"updated_at": a.clock().UTC(),
	}
	if update.Text != nil {
		columns["text"] = *update.Text
	}
	if update.X != nil {
		columns["x"] = *update.X
	}
	if update.Y != nil {
		columns["y"] = *update.Y
	}

	result := a.db.WithContext(ctx).Model(&NoteRecord{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return false, fmt.Errorf("persistence: patch note: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a note, reporting whether it existed.
func (a *SQLiteArchive) Delete(ctx context.Context, id string) (bool, error) {
	result := a.db.WithContext(ctx).Where("id = ?", id).Delete(&NoteRecord{})
	if result.Error != nil {
		return false, fmt.Errorf("persistence: delete note: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r NoteRecord) toNote() canvas.Note {
	return canvas.Note{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		OwnerName: r.OwnerName,
		Text:      r.Text,
		X:         r.X,
		Y:         r.Y,
		Color:     r.Color,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func recordFromNote(note canvas.Note) NoteRecord {
	return NoteRecord{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		OwnerName: note.OwnerName,
		Text:      note.Text,
		X:         note.X,
		Y:         note.Y,
		Color:     note.Color,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}
