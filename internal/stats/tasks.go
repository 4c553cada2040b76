package stats

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xaenox/time-bot/internal/notes"
)

type TaskRecord struct {
	Title    string
	Due      *civil.Date
	Done     bool
	FilePath string
}

// ReadTasks parses every task note under dir, recursively, in path order.
// Unreadable files are skipped; a note without frontmatter is an open undated task.
func ReadTasks(dir string) ([]TaskRecord, error) {
	var records []TaskRecord
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		if rec, ok := parseTask(path); ok {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return records, nil
}

func parseTask(path string) (TaskRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TaskRecord{}, false
	}
	content := string(data)

	fm, body, err := notes.Split(content)
	switch {
	case errors.Is(err, notes.ErrUnclosed):
		fm, body = notes.Frontmatter{}, ""
	case err != nil:
		fm, body = notes.Frontmatter{}, content
	}
	rec := TaskRecord{
		Title:    notes.FirstLine(body),
		Done:     fm.Flag("done"),
		FilePath: path,
	}
	if rec.Title == "" {
		rec.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if due, ok := fm.Date("due"); ok {
		rec.Due = &due
	}
	return rec, true
}

// Overview buckets open tasks relative to a reference day.
type Overview struct {
	Today   []TaskRecord
	Overdue []TaskRecord
	Future  []TaskRecord
	Undated []TaskRecord
}

func BuildOverview(tasks []TaskRecord, today civil.Date) Overview {
	var o Overview
	for _, t := range tasks {
		switch {
		case t.Done:
		case t.Due == nil:
			o.Undated = append(o.Undated, t)
		case *t.Due == today:
			o.Today = append(o.Today, t)
		case t.Due.Before(today):
			o.Overdue = append(o.Overdue, t)
		default:
			o.Future = append(o.Future, t)
		}
	}
	for _, bucket := range [][]TaskRecord{o.Today, o.Overdue, o.Future} {
		slices.SortFunc(bucket, byDueThenTitle)
	}
	slices.SortFunc(o.Undated, func(a, b TaskRecord) int { return cmp.Compare(a.Title, b.Title) })
	return o
}

func byDueThenTitle(a, b TaskRecord) int {
	if a.Due.Before(*b.Due) {
		return -1
	}
	if b.Due.Before(*a.Due) {
		return 1
	}
	return cmp.Compare(a.Title, b.Title)
}

func (o Overview) Empty() bool {
	return len(o.Today)+len(o.Overdue)+len(o.Future)+len(o.Undated) == 0
}

func (o Overview) Format() string {
	if o.Empty() {
		return "Открытых задач нет."
	}
	sections := []struct {
		header string
		tasks  []TaskRecord
	}{
		{"Сегодня:", o.Today},
		{"Просроченные:", o.Overdue},
		{"Будущие:", o.Future},
		{"Без даты:", o.Undated},
	}

	var parts []string
	for _, s := range sections {
		if len(s.tasks) == 0 {
			continue
		}
		lines := []string{s.header}
		for _, t := range s.tasks {
			if t.Due != nil {
				lines = append(lines, fmt.Sprintf("• %s (до %s)", t.Title, t.Due))
			} else {
				lines = append(lines, "• "+t.Title)
			}
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}
