package canvas

import "time"

// Participant is the identity bound to a live connection. ConnectionID is a
// back-reference used for reverse lookup only, never an ownership edge.
type Participant struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Color        string `json:"assignedColor"`
	ConnectionID string `json:"-"`
}

// Note is a user-authored positioned text artifact on the shared surface.
// Notes survive their owner's disconnect and are the only persisted entity.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerParticipantId"`
	OwnerName string    `json:"ownerDisplayName"`
	Text      string    `json:"text"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Color     string    `json:"assignedColor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteUpdate carries a partial note mutation. Nil fields are left untouched.
type NoteUpdate struct {
	Text *string  `json:"text,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// CursorState is the last reported pointer position for a participant.
// Keyed by participant id, overwritten on every move, never persisted.
type CursorState struct {
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Color         string  `json:"assignedColor"`
}

// Reservation is an owned rectangular region of the surface. When hidden it
// masks other participants' notes inside it. Reservations are ephemeral and
// removed when their owner disconnects.
type Reservation struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerParticipantId"`
	OwnerName string `json:"ownerDisplayName"`
	Rect
	Color    string `json:"assignedColor"`
	IsHidden bool   `json:"isHidden"`
}
