// Package notes turns extracted entries into vault notes: file identity,
// markdown rendering and frontmatter parsing.
package notes

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/time-bot/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackTitle is used when sanitizing leaves nothing.
const FallbackTitle = "Note"

var (
	unsafeTitleChars = regexp.MustCompile(`[^0-9A-Za-zА-Яа-яЁё _-]+`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// TitleStyle selects how a sanitized title is spelled inside a filename.
type TitleStyle int

const (
	// Underscored replaces spaces with underscores: "чтение_книги".
	Underscored TitleStyle = iota
	// TitleCased capitalizes every word and keeps spaces: "Чтение Книги".
	TitleCased
)

// SanitizeTitle keeps Latin and Cyrillic letters, digits, spaces, underscores
// and hyphens, collapses whitespace and applies style.
func SanitizeTitle(title string, style TitleStyle) string {
	cleaned := unsafeTitleChars.ReplaceAllString(whitespace.ReplaceAllString(title, " "), "")
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return FallbackTitle
	}
	switch style {
	case TitleCased:
		return cases.Title(language.Und).String(cleaned)
	default:
		return strings.ReplaceAll(cleaned, " ", "_")
	}
}

// BuildTimeNote names a time note "{title}_{date}_{HH-MM}.md" using the
// entry's start time, or the minute of now when the entry has none.
func BuildTimeNote(entry models.TimeEntry, dir string, now time.Time) models.TimeNote {
	start := models.ClockTimeOf(now)
	if entry.StartTime != nil {
		start = *entry.StartTime
	}
	name := fmt.Sprintf("%s_%s_%02d-%02d.md",
		SanitizeTitle(entry.Title, Underscored), entry.Date, start.Hour, start.Minute)

	return models.TimeNote{
		NoteID:    newNoteID(),
		FileName:  name,
		FilePath:  filepath.Join(dir, name),
		CreatedAt: now,
		Entry:     entry,
	}
}

// BuildTaskNote names a task note "{Title}_{YYYY-MM-DD_HH-MM}.md" from the creation time.
func BuildTaskNote(entry models.TaskEntry, dir string, now time.Time) models.TaskNote {
	name := fmt.Sprintf("%s_%s.md", SanitizeTitle(entry.Title, TitleCased), now.Format("2006-01-02_15-04"))

	return models.TaskNote{
		NoteID:    newNoteID(),
		FileName:  name,
		FilePath:  filepath.Join(dir, name),
		CreatedAt: now,
		Entry:     entry,
	}
}

func newNoteID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
