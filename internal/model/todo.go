package model

import "time"

// Todo is a single entry of the signed-in user's collection.
// The backend owns it; the client only ever holds copies from a snapshot.
type Todo struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	IsDone    bool      `json:"isDone" yaml:"isDone"`
	Date      string    `json:"date" yaml:"date"`
	Breakdown []string  `json:"breakdown" yaml:"breakdown"`
	Owner     string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`
}

// NewTodo is the body of a create request.
type NewTodo struct {
	Content   string   `json:"content"`
	IsDone    bool     `json:"isDone"`
	Date      string   `json:"date"`
	Breakdown []string `json:"breakdown"`
}

// Patch is the body of an update request. Nil fields are left alone.
type Patch struct {
	IsDone *bool `json:"isDone,omitempty"`
}

// Snapshot is a full, ordered replacement of the collection.
type Snapshot struct {
	Items  []Todo `json:"items" yaml:"items"`
	Synced bool   `json:"isSynced" yaml:"isSynced"`
}

func (s Snapshot) Len() int { return len(s.Items) }

// Completed counts the done items.
func (s Snapshot) Completed() int {
	n := 0
	for _, it := range s.Items {
		if it.IsDone {
			n++
		}
	}
	return n
}
