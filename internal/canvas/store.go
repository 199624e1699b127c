package canvas

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingArchive = errors.New("canvas: note archive is required")
	noOpLogger        = zap.NewNop()
)

const (
	opInitializeCache = "canvas.initialize_cache"
	opCreateNote      = "canvas.create_note"
	opUpdateNote      = "canvas.update_note"
	opDeleteNote      = "canvas.delete_note"
	opClearNotes      = "canvas.clear_notes"
)

const (
	defaultQueueSize   = 64
	persistCallTimeout = 10 * time.Second
)

// StoreConfig describes the dependencies required by the authoritative store.
type StoreConfig struct {
	Archive   NoteArchive
	Clock     func() time.Time
	Logger    *zap.Logger
	QueueSize int
}

// Store is the single in-process source of truth for participants, cursors,
// reservations, and the write-through note cache. All reads and writes to
// shared state go through it; one mutex serializes every operation, so each
// method is atomic with respect to concurrent callers. Note mutations are
// applied to the cache synchronously and persisted to the archive in the
// background, best effort: an archive failure is logged and the cache remains
// authoritative for the session.
type Store struct {
	archive NoteArchive
	clock   func() time.Time
	logger  *zap.Logger

	mu           sync.Mutex
	notes        map[string]Note
	participants map[string]Participant
	byConnection map[string]string
	cursors      map[string]CursorState
	reservations map[string]Reservation
	cacheLoaded  bool

	tasks      chan func(ctx context.Context)
	workerDone chan struct{}
	closeOnce  sync.Once
}

// NewStore constructs the store and starts its persistence worker.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Archive == nil {
		return nil, errMissingArchive
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	store := &Store{
		archive:      cfg.Archive,
		clock:        clock,
		logger:       logger,
		notes:        make(map[string]Note),
		participants: make(map[string]Participant),
		byConnection: make(map[string]string),
		cursors:      make(map[string]CursorState),
		reservations: make(map[string]Reservation),
		tasks:        make(chan func(ctx context.Context), queueSize),
		workerDone:   make(chan struct{}),
	}
	go store.runPersistWorker()
	return store, nil
}

// Close drains the pending persistence queue and stops the worker. The store
// must not be used after Close.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.tasks)
		<-s.workerDone
	})
}

// InitializeCache loads all notes from the archive into the cache. It is
// idempotent; only the first call performs the load. An archive failure is
// logged and the store proceeds with an empty cache so startup never blocks
// on the persistence provider.
func (s *Store) InitializeCache(ctx context.Context) {
	s.mu.Lock()
	if s.cacheLoaded {
		s.mu.Unlock()
		return
	}
	s.cacheLoaded = true
	s.mu.Unlock()

	stored, err := s.archive.ListAll(ctx)
	if err != nil {
		s.logError(opInitializeCache, "archive_list_failed", err)
		return
	}

	s.mu.Lock()
	for _, note := range stored {
		s.notes[note.ID] = note
	}
	s.mu.Unlock()

	s.logger.Info("note cache initialized", zap.Int("count", len(stored)))
}

// ListNotes returns every cached note ordered by creation time. The archive
// is never consulted.
func (s *Store) ListNotes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotNotes()
}

// GetNote returns the cached note with the given id.
func (s *Store) GetNote(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	return note, ok
}

// CreateNote writes the note to the cache synchronously, so it is visible to
// subsequent reads immediately, then persists it in the background.
func (s *Store) CreateNote(note Note) Note {
	s.mu.Lock()
	s.notes[note.ID] = note
	s.mu.Unlock()

	s.enqueuePersist(func(ctx context.Context) {
		if err := s.archive.Put(ctx, note); err != nil {
			s.logError(opCreateNote, "archive_put_failed", err, zap.String("note_id", note.ID))
		}
	})
	return note
}

// UpdateNote merges only the provided fields into the cached note, refreshes
// its update timestamp, and persists the patch in the background. The second
// result is false when the id is unknown.
func (s *Store) UpdateNote(id string, update NoteUpdate) (Note, bool) {
	s.mu.Lock()
	existing, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return Note{}, false
	}

	if update.Text != nil {
		existing.Text = *update.Text
	}
	if update.X != nil {
		existing.X = *update.X
	}
	if update.Y != nil {
		existing.Y = *update.Y
	}
	existing.UpdatedAt = s.clock().UTC()
	s.notes[id] = existing
	s.mu.Unlock()

	s.enqueuePersist(func(ctx context.Context) {
		if _, err := s.archive.Patch(ctx, id, update); err != nil {
			s.logError(opUpdateNote, "archive_patch_failed", err, zap.String("note_id", id))
		}
	})
	return existing, true
}

// DeleteNote removes the note from the cache and deletes it from the archive
// in the background.
func (s *Store) DeleteNote(id string) bool {
	s.mu.Lock()
	_, ok := s.notes[id]
	if ok {
		delete(s.notes, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.enqueuePersist(func(ctx context.Context) {
		if _, err := s.archive.Delete(ctx, id); err != nil {
			s.logError(opDeleteNote, "archive_delete_failed", err, zap.String("note_id", id))
		}
	})
	return true
}

// ClearNotes empties the note cache and issues the archive deletes in
// parallel in the background. Individual delete failures do not fail the
// operation. Returns the number of notes cleared.
func (s *Store) ClearNotes() int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.notes))
	for id := range s.notes {
		ids = append(ids, id)
	}
	s.notes = make(map[string]Note)
	s.mu.Unlock()

	if len(ids) > 0 {
		s.enqueuePersist(func(ctx context.Context) {
			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func(noteID string) {
					defer wg.Done()
					if _, err := s.archive.Delete(ctx, noteID); err != nil {
						s.logError(opClearNotes, "archive_delete_failed", err, zap.String("note_id", noteID))
					}
				}(id)
			}
			wg.Wait()
			s.logger.Info("cleared notes from archive", zap.Int("count", len(ids)))
		})
	}
	return len(ids)
}

// AddParticipant registers a joined participant and records the
// connection-to-participant side table entry for reverse lookup.
func (s *Store) AddParticipant(participant Participant) Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[participant.ID] = participant
	s.byConnection[participant.ConnectionID] = participant.ID
	return participant
}

// FindParticipantByConnection resolves the participant bound to a connection.
func (s *Store) FindParticipantByConnection(connectionID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participantID, ok := s.byConnection[connectionID]
	if !ok {
		return Participant{}, false
	}
	participant, ok := s.participants[participantID]
	return participant, ok
}

// RemoveParticipantByConnection removes the participant bound to a connection
// along with its cursor state, returning the removed participant so the
// caller can cascade reservation cleanup.
func (s *Store) RemoveParticipantByConnection(connectionID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participantID, ok := s.byConnection[connectionID]
	if !ok {
		return Participant{}, false
	}
	participant, ok := s.participants[participantID]
	delete(s.byConnection, connectionID)
	delete(s.participants, participantID)
	delete(s.cursors, participantID)
	return participant, ok
}

// UpsertCursor overwrites the cursor state for its participant. Last write
// wins; there is no ordering guarantee beyond arrival order.
func (s *Store) UpsertCursor(cursor CursorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursor.ParticipantID] = cursor
}

// ListCursors returns every live cursor.
func (s *Store) ListCursors() []CursorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursors := make([]CursorState, 0, len(s.cursors))
	for _, cursor := range s.cursors {
		cursors = append(cursors, cursor)
	}
	sort.Slice(cursors, func(i, j int) bool { return cursors[i].ParticipantID < cursors[j].ParticipantID })
	return cursors
}

// CreateReservation stores the reservation unless its rectangle strictly
// overlaps an existing one. Rejection is an expected outcome reported by the
// false result, not an error: the caller emits a rejection event instead of
// failing.
func (s *Store) CreateReservation(reservation Reservation) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reservations {
		if reservation.Rect.Overlaps(existing.Rect) {
			return Reservation{}, false
		}
	}
	s.reservations[reservation.ID] = reservation
	return reservation, true
}

// GetReservation returns the reservation with the given id.
func (s *Store) GetReservation(id string) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	return reservation, ok
}

// UpdateReservation toggles the hidden flag. Geometry never changes here, so
// the overlap invariant cannot be violated by an update.
func (s *Store) UpdateReservation(id string, isHidden bool) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	if !ok {
		return Reservation{}, false
	}
	reservation.IsHidden = isHidden
	s.reservations[id] = reservation
	return reservation, true
}

// DeleteReservation removes a reservation unconditionally.
func (s *Store) DeleteReservation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reservations[id]
	delete(s.reservations, id)
	return ok
}

// DeleteReservationsByOwner removes every reservation owned by the
// participant and returns the removed set for broadcast fan-out. Used at
// disconnect time.
func (s *Store) DeleteReservationsByOwner(participantID string) []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []Reservation
	for id, reservation := range s.reservations {
		if reservation.OwnerID == participantID {
			removed = append(removed, reservation)
			delete(s.reservations, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return removed
}

// ListReservations returns every live reservation.
func (s *Store) ListReservations() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservations := make([]Reservation, 0, len(s.reservations))
	for _, reservation := range s.reservations {
		reservations = append(reservations, reservation)
	}
	sort.Slice(reservations, func(i, j int) bool { return reservations[i].ID < reservations[j].ID })
	return reservations
}

// VisibleNotes derives the notes visible to the given viewer. A note is
// hidden when some other participant's hidden reservation contains it,
// unless the note belongs to that reservation's owner. Ownership of the
// reservation, not the note, grants visibility: a viewer's own reservations
// never hide anything from that viewer. Containment is inclusive on the
// rectangle boundary, unlike the strict overlap test.
func (s *Store) VisibleNotes(viewerID string) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := make([]Note, 0, len(s.notes))
	for _, note := range s.snapshotNotes() {
		if !s.noteHiddenFromViewer(note, viewerID) {
			visible = append(visible, note)
		}
	}
	return visible
}

func (s *Store) noteHiddenFromViewer(note Note, viewerID string) bool {
	for _, reservation := range s.reservations {
		if reservation.OwnerID == viewerID {
			continue
		}
		if !reservation.IsHidden {
			continue
		}
		if note.OwnerID == reservation.OwnerID {
			continue
		}
		if reservation.Contains(note.X, note.Y) {
			return true
		}
	}
	return false
}

// snapshotNotes returns the cached notes ordered by creation time. Callers
// must hold the mutex.
func (s *Store) snapshotNotes() []Note {
	notes := make([]Note, 0, len(s.notes))
	for _, note := range s.notes {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes
}

// enqueuePersist hands a task to the background worker. When the queue is
// saturated the task runs on a detached goroutine instead so a mutation
// never waits on persistence.
func (s *Store) enqueuePersist(task func(ctx context.Context)) {
	select {
	case s.tasks <- task:
	default:
		go s.runPersistTask(task)
	}
}

func (s *Store) runPersistWorker() {
	defer close(s.workerDone)
	for task := range s.tasks {
		s.runPersistTask(task)
	}
}

func (s *Store) runPersistTask(task func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), persistCallTimeout)
	defer cancel()
	task(ctx)
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("canvas store error", attrs...)
}
