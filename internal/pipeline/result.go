package pipeline

import (
	"errors"
	"fmt"

	"github.com/xaenox/time-bot/internal/models"
)

// Result is one of TimeLogResult or TaskResult.
type Result interface {
	Kind() models.NoteKind
	result()
}

type TimeLogResult struct {
	Classification models.MessageClassification
	Note           models.TimeNote
	Markdown       string
	// Saved is false for dry runs.
	Saved bool
}

func (TimeLogResult) Kind() models.NoteKind { return models.NoteKindTimeLog }
func (TimeLogResult) result()               {}

type TaskResult struct {
	Classification models.MessageClassification
	Note           models.TaskNote
	Markdown       string
	Saved          bool
}

func (TaskResult) Kind() models.NoteKind { return models.NoteKindTask }
func (TaskResult) result()               {}

// UnsupportedIntentError is returned for intents with no note type, such as journal.
type UnsupportedIntentError struct {
	Intent models.Intent
}

func (e *UnsupportedIntentError) Error() string {
	return fmt.Sprintf("unsupported message intent %q", e.Intent)
}

var ErrEmptyMessage = errors.New("empty message")
