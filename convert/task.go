package convert

import (
	"time"

	"github.com/google/uuid"
)

// Task describes one document conversion: immutable inputs plus write-once
// run-state owned by the engine. A task is never reused after completion; a
// second run requires a new Task.
type Task struct {
	ID         uuid.UUID
	SourcePath string
	DestPath   string
	Format     string
	Settings   Settings

	startedAt time.Time
	endedAt   time.Time
	succeeded *bool
	message   string
}

// NewTask builds a task for converting source to dest in the given target
// format.
func NewTask(source, dest, format string, settings Settings) *Task {
	return &Task{
		ID:         uuid.New(),
		SourcePath: source,
		DestPath:   dest,
		Format:     format,
		Settings:   settings,
	}
}

// Start records the task start time. Called once by the engine.
func (t *Task) Start() {
	if t.startedAt.IsZero() {
		t.startedAt = time.Now()
	}
}

// Complete records the outcome. The first call wins; the engine calls it
// exactly once per execution.
func (t *Task) Complete(success bool, message string) {
	if t.succeeded != nil {
		return
	}
	t.endedAt = time.Now()
	if t.endedAt.Before(t.startedAt) {
		t.endedAt = t.startedAt
	}
	t.succeeded = &success
	t.message = message
}

// Started reports whether execution has begun.
func (t *Task) Started() bool { return !t.startedAt.IsZero() }

// Completed reports whether the task reached a terminal state.
func (t *Task) Completed() bool { return t.succeeded != nil }

// Succeeded returns the outcome; ok is false until the task completes.
func (t *Task) Succeeded() (success, ok bool) {
	if t.succeeded == nil {
		return false, false
	}
	return *t.succeeded, true
}

// Message returns the failure message recorded at completion, if any.
func (t *Task) Message() string { return t.message }

// Duration is derived from the recorded timestamps; ok is false unless both
// Start and Complete have been called.
func (t *Task) Duration() (time.Duration, bool) {
	if t.startedAt.IsZero() || t.endedAt.IsZero() {
		return 0, false
	}
	return t.endedAt.Sub(t.startedAt), true
}

// Record is an immutable snapshot of a task for reporting.
type Record struct {
	ID         uuid.UUID
	SourcePath string
	DestPath   string
	Format     string
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
	Succeeded  bool
	Completed  bool
	Message    string
}

// Snapshot captures the task's current state.
func (t *Task) Snapshot() Record {
	rec := Record{
		ID:         t.ID,
		SourcePath: t.SourcePath,
		DestPath:   t.DestPath,
		Format:     t.Format,
		StartedAt:  t.startedAt,
		EndedAt:    t.endedAt,
		Message:    t.message,
	}
	if d, ok := t.Duration(); ok {
		rec.Duration = d
	}
	if success, ok := t.Succeeded(); ok {
		rec.Succeeded = success
		rec.Completed = true
	}
	return rec
}
