// Package reminder stores per-user breath reminders and sends them when due.
package reminder

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/storage"
)

const DefaultFileName = "breath_reminders.json"

// Registry keeps reminders in a JSON array file. Every operation loads the
// file, mutates it and writes it back atomically under one lock.
type Registry struct {
	mu    sync.Mutex
	files storage.Files
	name  string
	loc   *time.Location
}

// NewRegistry stores reminders in name under files; loc interprets one-shot instants.
func NewRegistry(files storage.Files, name string, loc *time.Location) *Registry {
	if name == "" {
		name = DefaultFileName
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{files: files, name: name, loc: loc}
}

// Upsert stores r, replacing the reminder of the same user in place. A new
// time of day forgets the previous delivery, so it can fire the same day.
func (r *Registry) Upsert(rem models.BreathReminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].UserID == rem.UserID {
			if all[i].Time != rem.Time || all[i].OneShot != rem.OneShot {
				all[i].LastSentDate = ""
			}
			all[i].ChatID = rem.ChatID
			all[i].Time = rem.Time
			all[i].OneShot = rem.OneShot
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, rem)
	}
	return r.save(all)
}

func (r *Registry) List() ([]models.BreathReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Due returns recurring reminders whose latest occurrence fell within window
// before now and was not sent yet, plus one-shot reminders already past.
func (r *Registry) Due(now time.Time, window time.Duration) ([]models.BreathReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}

	var due []models.BreathReminder
	for _, rem := range all {
		if rem.OneShot {
			at, err := rem.DueAt(r.loc)
			if err == nil && !at.After(now) {
				due = append(due, rem)
			}
			continue
		}
		at, err := r.lastOccurrence(rem, now)
		if err != nil || rem.LastSentDate == at.Format(time.DateOnly) {
			continue
		}
		if now.Sub(at) < window {
			due = append(due, rem)
		}
	}
	return due, nil
}

// lastOccurrence is the latest instant at or before now matching the
// reminder's time of day. Just after midnight that is yesterday's.
func (r *Registry) lastOccurrence(rem models.BreathReminder, now time.Time) (time.Time, error) {
	tod, err := models.ParseClockTime(rem.Time)
	if err != nil {
		return time.Time{}, err
	}
	now = now.In(r.loc)
	at := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, r.loc)
	if at.After(now) {
		at = at.AddDate(0, 0, -1)
	}
	return at, nil
}

// MarkSent records a reminder delivered at now: recurring ones remember the
// day of the occurrence, one-shot ones are removed. A reminder changed since
// it was read is left alone.
func (r *Registry) MarkSent(rem models.BreathReminder, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].UserID != rem.UserID || all[i].Time != rem.Time || all[i].OneShot != rem.OneShot {
			continue
		}
		if all[i].OneShot {
			all = append(all[:i], all[i+1:]...)
		} else {
			at, err := r.lastOccurrence(all[i], now)
			if err != nil {
				return err
			}
			all[i].LastSentDate = at.Format(time.DateOnly)
		}
		return r.save(all)
	}
	return nil
}

func (r *Registry) load() ([]models.BreathReminder, error) {
	if !r.files.Exists(r.name) {
		return nil, nil
	}
	data, err := r.files.ReadText(r.name)
	if err != nil {
		return nil, fmt.Errorf("read reminders: %w", err)
	}
	var all []models.BreathReminder
	if err := json.Unmarshal([]byte(data), &all); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	return all, nil
}

func (r *Registry) save(all []models.BreathReminder) error {
	if all == nil {
		all = []models.BreathReminder{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}
	if _, err := r.files.WriteText(r.name, string(data)); err != nil {
		return fmt.Errorf("write reminders: %w", err)
	}
	return nil
}
