package cleanup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/lakecleaner/pkg/task"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TableIdentifier names a table within a (possibly nested) namespace.
type TableIdentifier struct {
	Namespace []string `json:"namespace" validate:"dive,required"`
	Name      string   `json:"name" validate:"required"`
}

// ParseTableIdentifier parses a dotted name such as "db1.schema1.table1".
func ParseTableIdentifier(s string) (TableIdentifier, error) {
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return TableIdentifier{}, fmt.Errorf("invalid table identifier %q", s)
		}
	}

	id := TableIdentifier{
		Namespace: parts[:len(parts)-1],
		Name:      parts[len(parts)-1],
	}
	if len(id.Namespace) == 0 {
		id.Namespace = nil
	}
	return id, nil
}

// String renders the identifier in dotted form.
func (id TableIdentifier) String() string {
	if len(id.Namespace) == 0 {
		return id.Name
	}
	return strings.Join(id.Namespace, ".") + "." + id.Name
}

// ContentCleanupTask is the payload of a TABLE_CONTENT_CLEANUP task. Paths may
// repeat or name files that are already gone.
type ContentCleanupTask struct {
	TableIdentifier *TableIdentifier `json:"tableIdentifier" validate:"required"`
	Paths           []string         `json:"paths" validate:"required"`
}

// NewContentCleanupTask builds a payload. paths is copied.
func NewContentCleanupTask(id TableIdentifier, paths []string) ContentCleanupTask {
	p := make([]string, len(paths))
	copy(p, paths)

	ns := make([]string, len(id.Namespace))
	copy(ns, id.Namespace)

	return ContentCleanupTask{
		TableIdentifier: &TableIdentifier{Namespace: ns, Name: id.Name},
		Paths:           p,
	}
}

// Validate checks that the payload names a table and carries a path list.
func (c ContentCleanupTask) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid content cleanup payload: %w", err)
	}
	return nil
}

// NewTask wraps a content cleanup payload in a task record.
func NewTask(id TableIdentifier, paths []string) (*task.Task, error) {
	payload := NewContentCleanupTask(id, paths)
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return task.New(task.KindTableContentCleanup, "table-content-cleanup-"+id.String(), payload)
}

// errWrongKind is returned by DecodeTask for tasks of another kind.
var errWrongKind = errors.New("not a content cleanup task")

// DecodeTask extracts and validates the payload of t.
func DecodeTask(t *task.Task) (ContentCleanupTask, error) {
	if t == nil || t.Kind != task.KindTableContentCleanup {
		return ContentCleanupTask{}, errWrongKind
	}

	var payload ContentCleanupTask
	if err := t.Decode(&payload); err != nil {
		return ContentCleanupTask{}, err
	}
	if err := payload.Validate(); err != nil {
		return ContentCleanupTask{}, err
	}
	return payload, nil
}

// TableKey returns the dotted table name of a content cleanup task. It serves
// as the key for storage.CachingResolver.
func TableKey(t *task.Task) (string, error) {
	payload, err := DecodeTask(t)
	if err != nil {
		return "", err
	}
	return payload.TableIdentifier.String(), nil
}
