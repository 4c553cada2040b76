package models

import "time"

type NoteKind string

const (
	NoteKindTimeLog NoteKind = "time_log"
	NoteKindTask    NoteKind = "task"
)

// TimeNote is a time entry bound to its vault identity.
type TimeNote struct {
	NoteID    string    `json:"note_id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	Entry     TimeEntry `json:"entry"`
}

// TaskNote is a task entry bound to its vault identity.
type TaskNote struct {
	NoteID    string    `json:"note_id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	Entry     TaskEntry `json:"entry"`
}
