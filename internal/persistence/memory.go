package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

// MemoryArchive is the process-local NoteArchive fallback used when no
// database is configured. Contents do not survive a restart.
type MemoryArchive struct {
	mu    sync.Mutex
	notes map[string]canvas.Note
	clock func() time.Time
}

// NewMemoryArchive constructs an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		notes: make(map[string]canvas.Note),
		clock: time.Now,
	}
}

// ListAll returns every stored note.
func (a *MemoryArchive) ListAll(_ context.Context) ([]canvas.Note, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	notes := make([]canvas.Note, 0, len(a.notes))
	for _, note := range a.notes {
		notes = append(notes, note)
	}
	return notes, nil
}

// Get returns the note with the given id, or false when absent.
func (a *MemoryArchive) Get(_ context.Context, id string) (canvas.Note, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	note, ok := a.notes[id]
	return note, ok, nil
}

// Put stores or replaces a note.
func (a *MemoryArchive) Put(_ context.Context, note canvas.Note) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes[note.ID] = note
	return nil
}

// Patch applies only the provided fields and refreshes the update timestamp.
func (a *MemoryArchive) Patch(_ context.Context, id string, update canvas.NoteUpdate) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	note, ok := a.notes[id]
	if !ok {
		return false, nil
	}
	if update.Text != nil {
		note.Text = *update.Text
	}
	if update.X != nil {
		note.X = *update.X
	}
	if update.Y != nil {
		note.Y = *update.Y
	}
	note.UpdatedAt = a.clock().UTC()
	a.notes[id] = note
	return true, nil
}

// Delete removes a note, reporting whether it existed.
func (a *MemoryArchive) Delete(_ context.Context, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.notes[id]
	delete(a.notes, id)
	return ok, nil
}
