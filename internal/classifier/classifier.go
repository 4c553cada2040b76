package classifier

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/xaenox/time-bot/internal/models"
)

// Classifier routes a message and extracts structured entries from it.
// Every failure is returned as a *ParseError.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.MessageClassification, error)
	ExtractTimeEntry(ctx context.Context, text string, today civil.Date) (models.TimeEntry, error)
	ExtractTaskEntry(ctx context.Context, text string, today civil.Date, timezone string) (models.TaskEntry, error)
}

// ParseError reports that the model could not be called or its answer could
// not be turned into a valid entry.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(op string, format string, args ...any) *ParseError {
	return &ParseError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ExtractJSON isolates the first balanced {...} span in model output. When no
// span balances the input is returned unchanged so that decoding fails loudly.
func ExtractJSON(content string) string {
	for start := 0; start < len(content); start++ {
		if content[start] != '{' {
			continue
		}
		depth := 0
		for end := start; end < len(content); end++ {
			switch content[end] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return content[start : end+1]
				}
			}
		}
	}
	return content
}
