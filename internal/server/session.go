package server

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

var (
	errMissingStore    = errors.New("server: store dependency required")
	errMissingHub      = errors.New("server: hub dependency required")
	errMissingProtocol = errors.New("server: protocol dependency required")
)

// Client-facing error messages for the identity, not-found, and permission
// failure classes. Each aborts the intent with no state change.
const (
	msgIdentityUnknown          = "User not found. Please refresh the page."
	msgNoteNotFound             = "Note not found."
	msgNoteNotOwned             = "You can only edit your own notes."
	msgNoteDeleteNotOwned       = "You can only delete your own notes."
	msgReservationNotFound      = "Reservation not found."
	msgReservationNotOwned      = "You can only modify your own reservation."
	msgReservationOverlap       = "Cannot create area: it overlaps with an existing reserved area."
	msgMalformedPayload         = "Malformed payload."
	msgIdentifierGenerationFail = "Could not allocate an identifier. Please retry."
)

// ProtocolConfig describes the dependencies of the session protocol.
type ProtocolConfig struct {
	Store      *canvas.Store
	Hub        *Hub
	IDProvider canvas.IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Protocol maps connection lifecycle and inbound intents onto store
// operations, and store results onto outbound events. A connection is
// anonymous until its join intent binds it to a participant; every other
// intent is rejected with an identity error until then. No operation is
// retried: a dropped connection simply never sees its acknowledgment and
// client reconnection is the only recovery path.
type Protocol struct {
	store   *canvas.Store
	hub     *Hub
	ids     canvas.IDProvider
	palette *canvas.Palette
	clock   func() time.Time
	logger  *zap.Logger
}

// NewProtocol constructs the session protocol.
func NewProtocol(cfg ProtocolConfig) (*Protocol, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Hub == nil {
		return nil, errMissingHub
	}

	ids := cfg.IDProvider
	if ids == nil {
		ids = canvas.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Protocol{
		store:   cfg.Store,
		hub:     cfg.Hub,
		ids:     ids,
		palette: canvas.NewPalette(),
		clock:   clock,
		logger:  logger,
	}, nil
}

// HandleConnect registers a new anonymous connection.
func (p *Protocol) HandleConnect(c client) {
	p.hub.Register(c)
	p.logger.Info("client connected", zap.String("connection_id", c.ID()))
}

// HandleDisconnect tears down a connection: the bound participant and its
// cursor are removed, each of its reservations is deleted and broadcast
// individually, then the departure notices go out. Notes owned by the
// departed participant are left untouched.
func (p *Protocol) HandleDisconnect(connectionID string) {
	p.hub.Unregister(connectionID)

	participant, ok := p.store.RemoveParticipantByConnection(connectionID)
	if !ok {
		p.logger.Info("client disconnected", zap.String("connection_id", connectionID))
		return
	}

	for _, reservation := range p.store.DeleteReservationsByOwner(participant.ID) {
		p.hub.Broadcast(Event{Event: EventReservationDeleted, Data: reservation.ID})
	}
	p.hub.Broadcast(Event{Event: EventParticipantLeft, Data: participant.ID})
	p.hub.Broadcast(Event{Event: EventCursorLeft, Data: participant.ID})

	p.logger.Info("participant disconnected",
		zap.String("participant_id", participant.ID),
		zap.String("display_name", participant.DisplayName))
}

// HandleIntent dispatches one inbound message from a connection. Intents
// from a single connection arrive and are handled in order.
func (p *Protocol) HandleIntent(connectionID string, envelope Envelope) {
	switch envelope.Event {
	case IntentJoin:
		p.handleJoin(connectionID, envelope.Data)
	case IntentNoteCreate:
		p.handleNoteCreate(connectionID, envelope.Data)
	case IntentNoteUpdate:
		p.handleNoteUpdate(connectionID, envelope.Data)
	case IntentNoteDelete:
		p.handleNoteDelete(connectionID, envelope.Data)
	case IntentNoteClearAll:
		p.handleNoteClearAll(connectionID)
	case IntentReservationCreate:
		p.handleReservationCreate(connectionID, envelope.Data)
	case IntentReservationUpdate:
		p.handleReservationUpdate(connectionID, envelope.Data)
	case IntentReservationDelete:
		p.handleReservationDelete(connectionID, envelope.Data)
	case IntentCursorMove:
		p.handleCursorMove(connectionID, envelope.Data)
	default:
		p.logger.Warn("unknown intent",
			zap.String("connection_id", connectionID),
			zap.String("event", envelope.Event))
	}
}

func (p *Protocol) handleJoin(connectionID string, data json.RawMessage) {
	var payload joinPayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	participantID, err := p.ids.NewID()
	if err != nil {
		p.logger.Error("participant id generation failed", zap.Error(err))
		p.sendError(connectionID, msgIdentifierGenerationFail)
		return
	}

	displayName := payload.DisplayName
	if displayName == "" {
		displayName = "User-" + participantID[:4]
	}

	participant := p.store.AddParticipant(canvas.Participant{
		ID:           participantID,
		DisplayName:  displayName,
		Color:        p.palette.Next(),
		ConnectionID: connectionID,
	})

	p.hub.SendTo(connectionID, Event{Event: EventSyncInitial, Data: initialSyncPayload{
		Notes:        p.store.ListNotes(),
		Cursors:      p.store.ListCursors(),
		Reservations: p.store.ListReservations(),
	}})
	p.hub.BroadcastExcept(connectionID, Event{Event: EventParticipantJoined, Data: participantJoinedPayload{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		Color:         participant.Color,
	}})

	p.logger.Info("participant joined",
		zap.String("participant_id", participant.ID),
		zap.String("display_name", participant.DisplayName))
}

func (p *Protocol) handleNoteCreate(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload noteCreatePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	noteID, err := p.ids.NewID()
	if err != nil {
		p.logger.Error("note id generation failed", zap.Error(err))
		p.sendError(connectionID, msgIdentifierGenerationFail)
		return
	}

	now := p.clock().UTC()
	note := p.store.CreateNote(canvas.Note{
		ID:        noteID,
		OwnerID:   participant.ID,
		OwnerName: participant.DisplayName,
		Text:      payload.Text,
		X:         payload.X,
		Y:         payload.Y,
		Color:     participant.Color,
		CreatedAt: now,
		UpdatedAt: now,
	})

	p.hub.Broadcast(Event{Event: EventNoteCreated, Data: note})
	p.logger.Info("note created",
		zap.String("note_id", note.ID),
		zap.String("participant_id", participant.ID))
}

func (p *Protocol) handleNoteUpdate(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload noteUpdatePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	note, ok := p.store.GetNote(payload.ID)
	if !ok {
		p.sendError(connectionID, msgNoteNotFound)
		return
	}
	if note.OwnerID != participant.ID {
		p.sendError(connectionID, msgNoteNotOwned)
		return
	}

	updated, ok := p.store.UpdateNote(payload.ID, payload.NoteUpdate)
	if !ok {
		p.sendError(connectionID, msgNoteNotFound)
		return
	}

	p.hub.Broadcast(Event{Event: EventNoteUpdated, Data: updated})
	p.logger.Info("note updated", zap.String("note_id", updated.ID))
}

func (p *Protocol) handleNoteDelete(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload noteDeletePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	note, ok := p.store.GetNote(payload.ID)
	if !ok {
		p.sendError(connectionID, msgNoteNotFound)
		return
	}
	if note.OwnerID != participant.ID {
		p.sendError(connectionID, msgNoteDeleteNotOwned)
		return
	}

	if p.store.DeleteNote(payload.ID) {
		p.hub.Broadcast(Event{Event: EventNoteDeleted, Data: payload.ID})
		p.logger.Info("note deleted", zap.String("note_id", payload.ID))
	}
}

func (p *Protocol) handleNoteClearAll(connectionID string) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}

	count := p.store.ClearNotes()
	p.hub.Broadcast(Event{Event: EventNoteCleared})
	p.logger.Info("notes cleared",
		zap.Int("count", count),
		zap.String("participant_id", participant.ID))
}

func (p *Protocol) handleReservationCreate(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload reservationCreatePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	reservationID, err := p.ids.NewID()
	if err != nil {
		p.logger.Error("reservation id generation failed", zap.Error(err))
		p.sendError(connectionID, msgIdentifierGenerationFail)
		return
	}

	reservation, created := p.store.CreateReservation(canvas.Reservation{
		ID:        reservationID,
		OwnerID:   participant.ID,
		OwnerName: participant.DisplayName,
		Rect: canvas.Rect{
			X:      payload.X,
			Y:      payload.Y,
			Width:  payload.Width,
			Height: payload.Height,
		},
		Color: participant.Color,
	})
	if !created {
		provisionalID := payload.ID
		if provisionalID == "" {
			provisionalID = reservationID
		}
		p.sendError(connectionID, msgReservationOverlap)
		p.hub.SendTo(connectionID, Event{Event: EventReservationRejected, Data: provisionalID})
		return
	}

	p.hub.Broadcast(Event{Event: EventReservationCreated, Data: reservation})
	p.logger.Info("reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("participant_id", participant.ID))
}

func (p *Protocol) handleReservationUpdate(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload reservationUpdatePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	reservation, ok := p.store.GetReservation(payload.ID)
	if !ok {
		p.sendError(connectionID, msgReservationNotFound)
		return
	}
	if reservation.OwnerID != participant.ID {
		p.sendError(connectionID, msgReservationNotOwned)
		return
	}

	isHidden := reservation.IsHidden
	if payload.IsHidden != nil {
		isHidden = *payload.IsHidden
	}
	updated, ok := p.store.UpdateReservation(payload.ID, isHidden)
	if !ok {
		p.sendError(connectionID, msgReservationNotFound)
		return
	}

	p.hub.Broadcast(Event{Event: EventReservationUpdated, Data: updated})
	p.logger.Info("reservation updated",
		zap.String("reservation_id", updated.ID),
		zap.Bool("is_hidden", updated.IsHidden))
}

func (p *Protocol) handleReservationDelete(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload reservationDeletePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	reservation, ok := p.store.GetReservation(payload.ID)
	if !ok {
		p.sendError(connectionID, msgReservationNotFound)
		return
	}
	if reservation.OwnerID != participant.ID {
		p.sendError(connectionID, msgReservationNotOwned)
		return
	}

	p.store.DeleteReservation(payload.ID)
	p.hub.Broadcast(Event{Event: EventReservationDeleted, Data: payload.ID})
	p.logger.Info("reservation deleted", zap.String("reservation_id", payload.ID))
}

func (p *Protocol) handleCursorMove(connectionID string, data json.RawMessage) {
	participant, ok := p.resolveParticipant(connectionID)
	if !ok {
		return
	}
	var payload cursorMovePayload
	if !p.decode(connectionID, data, &payload) {
		return
	}

	cursor := canvas.CursorState{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		X:             payload.X,
		Y:             payload.Y,
		Color:         participant.Color,
	}
	p.store.UpsertCursor(cursor)

	// The mover does not need its own echo.
	p.hub.BroadcastExcept(connectionID, Event{Event: EventCursorMoved, Data: cursor})
}

func (p *Protocol) resolveParticipant(connectionID string) (canvas.Participant, bool) {
	participant, ok := p.store.FindParticipantByConnection(connectionID)
	if !ok {
		p.sendError(connectionID, msgIdentityUnknown)
		return canvas.Participant{}, false
	}
	return participant, true
}

func (p *Protocol) decode(connectionID string, data json.RawMessage, dst any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		p.logger.Warn("malformed intent payload",
			zap.String("connection_id", connectionID),
			zap.Error(err))
		p.sendError(connectionID, msgMalformedPayload)
		return false
	}
	return true
}

func (p *Protocol) sendError(connectionID, message string) {
	p.hub.SendTo(connectionID, Event{Event: EventError, Data: message})
}
