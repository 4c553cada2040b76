package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
)

type Maintag string

const (
	MaintagW1   Maintag = "w1"
	MaintagW2   Maintag = "w2"
	MaintagRT   Maintag = "rt"
	MaintagRest Maintag = "rest"
)

// Maintags lists every accepted maintag in schema order.
var Maintags = []Maintag{MaintagW1, MaintagW2, MaintagRT, MaintagRest}

type Subtag string

// Subtags lists every accepted subtag in schema order. "other" is the catch-all.
var Subtags = []Subtag{
	"coding",
	"wasting",
	"social",
	"walking",
	"gym",
	"hobby",
	"writing",
	"reading",
	"systematization",
	"watching",
	"technical",
	"learning",
	"health",
	"rest",
	"waiting",
	"other",
}

type Intent string

const (
	IntentTask    Intent = "task"
	IntentJournal Intent = "journal"
	IntentTimeLog Intent = "time_log"
)

var Intents = []Intent{IntentTask, IntentJournal, IntentTimeLog}

type ProjectTag string

const (
	ProjectCoding  ProjectTag = "coding"
	ProjectRoutine ProjectTag = "routine"
)

var ProjectTags = []ProjectTag{ProjectCoding, ProjectRoutine}

const (
	MinTitleLength = 3
	MaxTitleLength = 200
	MinMinutes     = 1
	MaxMinutes     = 12 * 60
)

// TimeEntry is a time log extracted from a natural-language message.
type TimeEntry struct {
	Title     string     `json:"title"`
	RawText   string     `json:"raw_text"`
	Minutes   int        `json:"minutes"`
	Date      civil.Date `json:"date"`
	StartTime *ClockTime `json:"start_time,omitempty"`
	Maintag   Maintag    `json:"maintag"`
	Subtag    Subtag     `json:"subtag,omitempty"`
	Comment   string     `json:"comment,omitempty"`
}

func (e TimeEntry) Validate() error {
	var errs []error
	if err := validateTitle(e.Title); err != nil {
		errs = append(errs, err)
	}
	if e.Minutes < MinMinutes || e.Minutes > MaxMinutes {
		errs = append(errs, fmt.Errorf("minutes: %d is outside [%d, %d]", e.Minutes, MinMinutes, MaxMinutes))
	}
	if !e.Date.IsValid() {
		errs = append(errs, fmt.Errorf("date: %q is not a valid calendar date", e.Date))
	}
	if !slices.Contains(Maintags, e.Maintag) {
		errs = append(errs, fmt.Errorf("maintag: unknown value %q", e.Maintag))
	}
	if e.Subtag != "" && !slices.Contains(Subtags, e.Subtag) {
		errs = append(errs, fmt.Errorf("subtag: unknown value %q", e.Subtag))
	}
	return errors.Join(errs...)
}

// TaskEntry is a to-do extracted from a message.
type TaskEntry struct {
	Title   string       `json:"title"`
	RawText string       `json:"raw_text"`
	Due     *civil.Date  `json:"due"`
	Project []ProjectTag `json:"project"`
}

func (e TaskEntry) Validate() error {
	var errs []error
	if err := validateTitle(e.Title); err != nil {
		errs = append(errs, err)
	}
	if e.Due != nil && !e.Due.IsValid() {
		errs = append(errs, fmt.Errorf("due: %q is not a valid calendar date", *e.Due))
	}
	if len(e.Project) == 0 {
		errs = append(errs, errors.New("project: at least one value is required"))
	}
	for _, p := range e.Project {
		if !slices.Contains(ProjectTags, p) {
			errs = append(errs, fmt.Errorf("project: unknown value %q", p))
		}
	}
	return errors.Join(errs...)
}

// MessageClassification routes an inbound message to an extractor.
type MessageClassification struct {
	Intent      Intent `json:"intent"`
	RawText     string `json:"raw_text"`
	Explanation string `json:"explanation,omitempty"`
}

func (c MessageClassification) Validate() error {
	if !slices.Contains(Intents, c.Intent) {
		return fmt.Errorf("intent: unknown value %q", c.Intent)
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinTitleLength || n > MaxTitleLength {
		return fmt.Errorf("title: length %d is outside [%d, %d]", n, MinTitleLength, MaxTitleLength)
	}
	return nil
}
