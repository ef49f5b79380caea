package models

import (
	"slices"
	"time"
)

// Event types recorded in the activity log.
const (
	EventUserRegistered   = "USER_REGISTERED"
	EventLogin            = "LOGIN"
	EventLoginFailed      = "LOGIN_FAILED"
	EventLogout           = "LOGOUT"
	EventClassroomCreated = "CLASSROOM_CREATED"
	EventClassroomJoined  = "CLASSROOM_JOINED"
)

var eventTypes = []string{
	EventUserRegistered, EventLogin, EventLoginFailed, EventLogout,
	EventClassroomCreated, EventClassroomJoined,
}

// IsEventType reports whether t is one of the recorded event types.
func IsEventType(t string) bool {
	return slices.Contains(eventTypes, t)
}

// Event is a single activity log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	UserID      int       `json:"user_id,omitempty"` // 0 when the actor is unknown
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
