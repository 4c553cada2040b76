// Package pipeline turns message text into a persisted vault note:
// classify, extract, build, render, write, log.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xaenox/time-bot/internal/classifier"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/eventlog"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/notes"
	"go.uber.org/zap"
)

// TasksSubdir is where task notes go when only a vault root is known.
const TasksSubdir = "tasks"

type NoteWriter interface {
	WriteNew(rel, content string) (string, error)
}

type EventRecorder interface {
	Record(status eventlog.Status, fields ...zap.Field) error
}

type Config struct {
	VaultDir string
	// TasksDir defaults to VaultDir/tasks.
	TasksDir string
	// TaskTimezone is the reference zone for relative due dates.
	TaskTimezone string
}

type Pipeline struct {
	classifier classifier.Classifier
	writer     NoteWriter
	events     EventRecorder
	clock      clock.Clock
	logger     *zap.Logger

	vaultDir   string
	tasksDir   string
	taskTZName string
	taskLoc    *time.Location
}

func New(cfg Config, clf classifier.Classifier, writer NoteWriter, events EventRecorder, clk clock.Clock, logger *zap.Logger) *Pipeline {
	tasksDir := cfg.TasksDir
	if tasksDir == "" {
		tasksDir = filepath.Join(cfg.VaultDir, TasksSubdir)
	}
	loc, ok := clock.LoadLocation(cfg.TaskTimezone)
	if !ok {
		logger.Warn("Unknown task timezone, using UTC", zap.String("timezone", cfg.TaskTimezone))
	}
	return &Pipeline{
		classifier: clf,
		writer:     writer,
		events:     events,
		clock:      clk,
		logger:     logger,
		vaultDir:   cfg.VaultDir,
		tasksDir:   tasksDir,
		taskTZName: cfg.TaskTimezone,
		taskLoc:    loc,
	}
}

type Options struct {
	// Today overrides the reference date passed to the extractors.
	Today *civil.Date
	// OutputDir replaces the vault root; tasks go to OutputDir/tasks.
	OutputDir string
	// DryRun renders without writing or logging.
	DryRun bool
}

// Process runs one message through the pipeline. Failures are recorded in the
// event log before being returned.
func (p *Pipeline) Process(ctx context.Context, text string, opts Options) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	res, err := p.process(ctx, text, opts)
	if err != nil {
		p.logger.Warn("Failed to process message", zap.String("raw_text", text), zap.Error(err))
		if !opts.DryRun {
			p.record(eventlog.StatusError, zap.String("raw_text", text), zap.String("error", err.Error()))
		}
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, text string, opts Options) (Result, error) {
	classification, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	now := p.clock.Now()
	timeDir, tasksDir := p.vaultDir, p.tasksDir
	if opts.OutputDir != "" {
		timeDir, tasksDir = opts.OutputDir, filepath.Join(opts.OutputDir, TasksSubdir)
	}

	switch classification.Intent {
	case models.IntentTimeLog:
		today := civil.DateOf(now)
		if opts.Today != nil {
			today = *opts.Today
		}
		entry, err := p.classifier.ExtractTimeEntry(ctx, text, today)
		if err != nil {
			return nil, err
		}
		note := notes.BuildTimeNote(entry, timeDir, now)
		res := TimeLogResult{Classification: classification, Note: note, Markdown: notes.RenderTimeNote(note)}
		if opts.DryRun {
			return res, nil
		}
		if res.Note.FilePath, err = p.writer.WriteNew(note.FilePath, res.Markdown); err != nil {
			return nil, err
		}
		res.Note.FileName = filepath.Base(res.Note.FilePath)
		res.Saved = true

		p.record(eventlog.StatusSuccess,
			zap.String("kind", string(models.NoteKindTimeLog)),
			zap.String("raw_text", text),
			zap.String("intent", string(classification.Intent)),
			zap.Int("minutes", entry.Minutes),
			zap.String("maintag", string(entry.Maintag)),
			zap.String("subtag", string(entry.Subtag)),
			zap.String("date", entry.Date.String()),
			zap.String("file_name", res.Note.FileName),
			zap.String("file_path", res.Note.FilePath),
		)
		return res, nil

	case models.IntentTask:
		today := civil.DateOf(now.In(p.taskLoc))
		if opts.Today != nil {
			today = *opts.Today
		}
		entry, err := p.classifier.ExtractTaskEntry(ctx, text, today, p.taskTZName)
		if err != nil {
			return nil, err
		}
		note := notes.BuildTaskNote(entry, tasksDir, now)
		res := TaskResult{Classification: classification, Note: note, Markdown: notes.RenderTaskNote(note)}
		if opts.DryRun {
			return res, nil
		}
		if res.Note.FilePath, err = p.writer.WriteNew(note.FilePath, res.Markdown); err != nil {
			return nil, err
		}
		res.Note.FileName = filepath.Base(res.Note.FilePath)
		res.Saved = true

		due := ""
		if entry.Due != nil {
			due = entry.Due.String()
		}
		projects := make([]string, len(entry.Project))
		for i, pr := range entry.Project {
			projects[i] = string(pr)
		}
		p.record(eventlog.StatusSuccess,
			zap.String("kind", string(models.NoteKindTask)),
			zap.String("raw_text", text),
			zap.String("intent", string(classification.Intent)),
			zap.String("title", entry.Title),
			zap.String("due", due),
			zap.Strings("project", projects),
			zap.String("file_name", res.Note.FileName),
			zap.String("file_path", res.Note.FilePath),
		)
		return res, nil

	default:
		return nil, &UnsupportedIntentError{Intent: classification.Intent}
	}
}

// record writes to the event log; a failed write is only reported.
func (p *Pipeline) record(status eventlog.Status, fields ...zap.Field) {
	if err := p.events.Record(status, fields...); err != nil {
		p.logger.Warn("Failed to record event", zap.Error(err))
	}
}
