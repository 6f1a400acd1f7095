package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityTask = "task"
	EntityRule = "rule"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Item is a write that could not reach PostgreSQL and waits for replay.
// Items replay in enqueue order so a create always precedes the update or
// delete that follows it.
type Item struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	key []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = time.Now().UTC()
	}
}
