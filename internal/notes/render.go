package notes

import (
	"fmt"
	"strings"

	"github.com/xaenox/time-bot/internal/models"
)

const (
	TimeNoteTag = "time_system"
	TaskNoteTag = "task"

	taskStatusNew   = "not started"
	taskPriorityDef = 1
)

// RenderTimeNote renders frontmatter (tags, time, date, maintag, subtag)
// followed by the title, the optional comment and the quoted source text.
func RenderTimeNote(note models.TimeNote) string {
	e := note.Entry

	var b strings.Builder
	b.WriteString("---\n")
	writeList(&b, "tags", []string{TimeNoteTag})
	fmt.Fprintf(&b, "time: %d\n", e.Minutes)
	fmt.Fprintf(&b, "date: %s\n", e.Date)
	fmt.Fprintf(&b, "maintag: %s\n", e.Maintag)
	if e.Subtag != "" {
		fmt.Fprintf(&b, "subtag: %s\n", e.Subtag)
	}
	b.WriteString("---\n\n")

	b.WriteString(e.Title + "\n\n")
	if e.Comment != "" {
		b.WriteString(e.Comment + "\n\n")
	}
	b.WriteString("Исходный текст:\n")
	writeQuote(&b, e.RawText)
	return b.String()
}

// RenderTaskNote renders a task note that starts undone.
func RenderTaskNote(note models.TaskNote) string {
	e := note.Entry

	var b strings.Builder
	b.WriteString("---\n")
	writeList(&b, "tags", []string{TaskNoteTag})
	b.WriteString("done: false\n")
	fmt.Fprintf(&b, "status: %s\n", taskStatusNew)
	fmt.Fprintf(&b, "priority: %d\n", taskPriorityDef)
	if e.Due != nil {
		fmt.Fprintf(&b, "due: %s\n", e.Due.String())
	} else {
		b.WriteString("due:\n")
	}
	projects := make([]string, len(e.Project))
	for i, p := range e.Project {
		projects[i] = string(p)
	}
	writeList(&b, "project", projects)
	b.WriteString("---\n\n")

	b.WriteString(e.Title + "\n\n")
	b.WriteString("Описание задачи:\n")
	writeQuote(&b, e.RawText)
	return b.String()
}

func writeList(b *strings.Builder, key string, items []string) {
	b.WriteString(key + ":\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
}

func writeQuote(b *strings.Builder, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString(strings.TrimRight("> "+line, " ") + "\n")
	}
}
