package canvas

import "context"

// NoteArchive is the persistence provider contract consumed by the Store.
// Only notes are durable; every other collection is session-scoped. The
// Store treats any archive failure as recoverable: it logs and keeps the
// in-memory cache as the session's source of truth.
type NoteArchive interface {
	// ListAll returns every stored note.
	ListAll(ctx context.Context) ([]Note, error)
	// Get returns the note with the given id, or false when absent.
	Get(ctx context.Context, id string) (Note, bool, error)
	// Put stores or replaces a note.
	Put(ctx context.Context, note Note) error
	// Patch applies a partial update to a stored note. Unknown ids are not
	// an error; the archive simply reports absence.
	Patch(ctx context.Context, id string, update NoteUpdate) (bool, error)
	// Delete removes a note, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}
