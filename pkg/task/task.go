// Package task defines the generic task record delivered by the scheduling
// framework and the contract handlers implement to process it.
package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags the payload type carried by a Task.
type Kind string

const (
	// KindTableContentCleanup removes obsolete data and metadata files of a table.
	KindTableContentCleanup Kind = "TABLE_CONTENT_CLEANUP"

	// KindEntityCleanup schedules cleanup work for a dropped catalog entity.
	KindEntityCleanup Kind = "ENTITY_CLEANUP_SCHEDULER"

	// KindManifestFileCleanup removes the files referenced by a single manifest.
	KindManifestFileCleanup Kind = "MANIFEST_FILE_CLEANUP"
)

func (k Kind) String() string {
	return string(k)
}

// ErrEmptyPayload is returned by Decode when the task carries no data.
var ErrEmptyPayload = errors.New("task payload is empty")

// Task is a persisted unit of asynchronous work.
type Task struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Kind      Kind            `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Attempt   int             `json:"attempt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// New builds a task of the given kind, serializing payload into Data.
func New(kind Kind, name string, payload any) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	return &Task{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode strictly unmarshals the payload into v. Unknown fields are rejected.
func (t *Task) Decode(v any) error {
	if t == nil || len(bytes.TrimSpace(t.Data)) == 0 {
		return ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(t.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Kind, err)
	}
	return nil
}

// Parse reads a Task from its JSON encoding and assigns an ID when missing.
func Parse(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse task: %w", err)
	}
	if t.Kind == "" {
		return nil, errors.New("parse task: kind is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return &t, nil
}
