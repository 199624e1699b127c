package server

import (
	"encoding/json"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

// Inbound intent names (client to server).
const (
	IntentJoin              = "join"
	IntentNoteCreate        = "note:create"
	IntentNoteUpdate        = "note:update"
	IntentNoteDelete        = "note:delete"
	IntentNoteClearAll      = "note:clear-all"
	IntentReservationCreate = "reservation:create"
	IntentReservationUpdate = "reservation:update"
	IntentReservationDelete = "reservation:delete"
	IntentCursorMove        = "cursor:move"
)

// Outbound event names (server to client).
const (
	EventSyncInitial         = "sync:initial"
	EventNoteCreated         = "note:created"
	EventNoteUpdated         = "note:updated"
	EventNoteDeleted         = "note:deleted"
	EventNoteCleared         = "note:cleared"
	EventCursorMoved         = "cursor:moved"
	EventCursorLeft          = "cursor:left"
	EventReservationCreated  = "reservation:created"
	EventReservationUpdated  = "reservation:updated"
	EventReservationDeleted  = "reservation:deleted"
	EventReservationRejected = "reservation:rejected"
	EventParticipantJoined   = "participant:joined"
	EventParticipantLeft     = "participant:left"
	EventError               = "error"
)

// Envelope frames an inbound client message on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event frames an outbound server message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type joinPayload struct {
	DisplayName string `json:"displayName"`
}

type noteCreatePayload struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type noteUpdatePayload struct {
	ID string `json:"id"`
	canvas.NoteUpdate
}

type noteDeletePayload struct {
	ID string `json:"id"`
}

// reservationCreatePayload carries the rectangle plus an optional
// client-provisional id, echoed back on rejection so an optimistic client
// can reconcile. The stored reservation always gets a server-generated id.
type reservationCreatePayload struct {
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type reservationUpdatePayload struct {
	ID       string `json:"id"`
	IsHidden *bool  `json:"isHidden,omitempty"`
}

type reservationDeletePayload struct {
	ID string `json:"id"`
}

type cursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type initialSyncPayload struct {
	Notes        []canvas.Note        `json:"notes"`
	Cursors      []canvas.CursorState `json:"cursors"`
	Reservations []canvas.Reservation `json:"reservations"`
}

type participantJoinedPayload struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Color         string `json:"assignedColor"`
}
