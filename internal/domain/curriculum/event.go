package curriculum

import "time"

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is the plain payload handed to the event publisher after a committed aggregate write.
type Event struct {
	Action    Action    `json:"action"`
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
