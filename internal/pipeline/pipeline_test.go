package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/eventlog"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type MockClassifier struct {
	Intent       models.Intent
	ClassifyErr  error
	TimeEntry    models.TimeEntry
	TaskEntry    models.TaskEntry
	GotToday     civil.Date
	GotTimezone  string
	ExtractCalls int
}

func (m *MockClassifier) Classify(_ context.Context, text string) (models.MessageClassification, error) {
	if m.ClassifyErr != nil {
		return models.MessageClassification{}, m.ClassifyErr
	}
	return models.MessageClassification{Intent: m.Intent, RawText: text}, nil
}

func (m *MockClassifier) ExtractTimeEntry(_ context.Context, text string, today civil.Date) (models.TimeEntry, error) {
	m.ExtractCalls++
	m.GotToday = today
	e := m.TimeEntry
	e.RawText = text
	return e, nil
}

func (m *MockClassifier) ExtractTaskEntry(_ context.Context, text string, today civil.Date, timezone string) (models.TaskEntry, error) {
	m.ExtractCalls++
	m.GotToday = today
	m.GotTimezone = timezone
	e := m.TaskEntry
	e.RawText = text
	return e, nil
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) Record(eventlog.Status, ...zap.Field) error {
	f.calls++
	return errors.New("disk full")
}

var fixedNow = time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, clf *MockClassifier) (*Pipeline, string, *eventlog.Log) {
	t.Helper()
	vault := t.TempDir()
	files, err := storage.NewFileStore(vault)
	if err != nil {
		t.Fatal(err)
	}
	events, err := eventlog.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := New(Config{VaultDir: vault, TaskTimezone: "Europe/Moscow"}, clf, files, events,
		clock.Func(func() time.Time { return fixedNow }), zaptest.NewLogger(t))
	return p, vault, events
}

func readEvents(t *testing.T, log *eventlog.Log) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(log.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestProcessTimeLog(t *testing.T) {
	clf := &MockClassifier{
		Intent:    models.IntentTimeLog,
		TimeEntry: models.TimeEntry{Title: "Чтение книги", Minutes: 30, Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Maintag: models.MaintagW1, Subtag: "reading"},
	}
	p, vault, events := newTestPipeline(t, clf)

	res, err := p.Process(context.Background(), "30 минут чтения книги", Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	tl, ok := res.(TimeLogResult)
	if !ok {
		t.Fatalf("result = %T, want TimeLogResult", res)
	}
	if tl.Kind() != models.NoteKindTimeLog || tl.Note.Entry.Minutes != 30 || !tl.Saved {
		t.Errorf("result = %+v", tl)
	}
	if tl.Note.FileName != "Чтение_книги_2024-01-01_10-15.md" {
		t.Errorf("file name = %q", tl.Note.FileName)
	}
	if filepath.Dir(tl.Note.FilePath) != vault {
		t.Errorf("path = %q, want inside %q", tl.Note.FilePath, vault)
	}
	written, err := os.ReadFile(tl.Note.FilePath)
	if err != nil || string(written) != tl.Markdown {
		t.Errorf("written note differs from markdown: %v", err)
	}

	evs := readEvents(t, events)
	if len(evs) != 1 || evs[0]["status"] != "success" || evs[0]["kind"] != "time_log" || evs[0]["minutes"] != float64(30) {
		t.Errorf("events = %v", evs)
	}
}

func TestProcessTaskUsesTaskTimezone(t *testing.T) {
	clf := &MockClassifier{
		Intent:    models.IntentTask,
		TaskEntry: models.TaskEntry{Title: "сходить в магазин", Project: []models.ProjectTag{models.ProjectRoutine}},
	}
	p, vault, _ := newTestPipeline(t, clf)

	res, err := p.Process(context.Background(), "Завтра сходить в магазин", Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	task, ok := res.(TaskResult)
	if !ok {
		t.Fatalf("result = %T, want TaskResult", res)
	}
	if clf.GotTimezone != "Europe/Moscow" {
		t.Errorf("timezone = %q", clf.GotTimezone)
	}
	if filepath.Dir(task.Note.FilePath) != filepath.Join(vault, TasksSubdir) {
		t.Errorf("path = %q, want under tasks", task.Note.FilePath)
	}
	if task.Note.FileName != "Сходить В Магазин_2024-01-01_10-15.md" {
		t.Errorf("file name = %q", task.Note.FileName)
	}
}

func TestProcessUnsupportedIntent(t *testing.T) {
	clf := &MockClassifier{Intent: models.IntentJournal}
	p, _, events := newTestPipeline(t, clf)

	_, err := p.Process(context.Background(), "сегодня был хороший день", Options{})
	var unsupported *UnsupportedIntentError
	if !errors.As(err, &unsupported) || unsupported.Intent != models.IntentJournal {
		t.Fatalf("error = %v, want UnsupportedIntentError(journal)", err)
	}
	if clf.ExtractCalls != 0 {
		t.Errorf("extractor called %d times", clf.ExtractCalls)
	}
	evs := readEvents(t, events)
	if len(evs) != 1 || evs[0]["status"] != "error" || evs[0]["raw_text"] != "сегодня был хороший день" {
		t.Errorf("events = %v", evs)
	}
}

func TestProcessClassifierFailureIsLogged(t *testing.T) {
	clf := &MockClassifier{ClassifyErr: errors.New("model down")}
	p, _, events := newTestPipeline(t, clf)

	if _, err := p.Process(context.Background(), "что-то", Options{}); err == nil {
		t.Fatal("expected error")
	}
	evs := readEvents(t, events)
	if len(evs) != 1 || evs[0]["error"] != "model down" {
		t.Errorf("events = %v", evs)
	}
}

func TestProcessDryRunAndOverrides(t *testing.T) {
	clf := &MockClassifier{
		Intent:    models.IntentTimeLog,
		TimeEntry: models.TimeEntry{Title: "Обед", Minutes: 30, Date: civil.Date{Year: 2024, Month: 2, Day: 3}, Maintag: models.MaintagRT},
	}
	p, _, events := newTestPipeline(t, clf)
	out := t.TempDir()
	today := civil.Date{Year: 2024, Month: 2, Day: 3}

	res, err := p.Process(context.Background(), "30 минут Обед", Options{Today: &today, OutputDir: out, DryRun: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	tl := res.(TimeLogResult)
	if tl.Saved {
		t.Error("dry run reported saved")
	}
	if clf.GotToday != today {
		t.Errorf("today = %v", clf.GotToday)
	}
	if filepath.Dir(tl.Note.FilePath) != out {
		t.Errorf("path = %q, want inside %q", tl.Note.FilePath, out)
	}
	if _, err := os.Stat(tl.Note.FilePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run wrote %s", tl.Note.FilePath)
	}
	if evs := readEvents(t, events); len(evs) != 0 {
		t.Errorf("dry run logged events: %v", evs)
	}
}

func TestProcessDisambiguatesCollisions(t *testing.T) {
	clf := &MockClassifier{
		Intent:    models.IntentTimeLog,
		TimeEntry: models.TimeEntry{Title: "Обед", Minutes: 30, Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Maintag: models.MaintagRT},
	}
	p, _, _ := newTestPipeline(t, clf)

	first, err := p.Process(context.Background(), "30 минут Обед", Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Process(context.Background(), "30 минут Обед", Options{})
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.(TimeLogResult).Note.FileName, second.(TimeLogResult).Note.FileName
	if a != "Обед_2024-01-01_10-15.md" || b != "Обед_2024-01-01_10-15 (2).md" {
		t.Errorf("file names = %q, %q", a, b)
	}
}

func TestEventLogFailureDoesNotFailProcessing(t *testing.T) {
	clf := &MockClassifier{
		Intent:    models.IntentTimeLog,
		TimeEntry: models.TimeEntry{Title: "Обед", Minutes: 30, Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Maintag: models.MaintagRT},
	}
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := &failingRecorder{}
	p := New(Config{VaultDir: files.BaseDir()}, clf, files, rec, clock.Func(func() time.Time { return fixedNow }), zap.NewNop())

	if _, err := p.Process(context.Background(), "30 минут Обед", Options{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("recorder calls = %d", rec.calls)
	}
}

func TestProcessRejectsEmptyText(t *testing.T) {
	p, _, _ := newTestPipeline(t, &MockClassifier{})
	if _, err := p.Process(context.Background(), "   ", Options{}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("error = %v", err)
	}
}
