package convert

import (
	"testing"
	"time"
)

func TestTaskLifecycle(t *testing.T) {
	task := NewTask("in.pdf", "out.txt", "txt", Settings{})
	if task.ID.String() == "" {
		t.Fatalf("task has no ID")
	}
	if task.Started() || task.Completed() {
		t.Fatalf("new task reports started=%v completed=%v", task.Started(), task.Completed())
	}
	if _, ok := task.Duration(); ok {
		t.Fatalf("new task reports a duration")
	}

	task.Start()
	if !task.Started() {
		t.Fatalf("Start did not mark the task started")
	}

	task.Complete(true, "")
	success, ok := task.Succeeded()
	if !ok || !success {
		t.Fatalf("Succeeded() = %v, %v after successful completion", success, ok)
	}
	if d, ok := task.Duration(); !ok || d < 0 {
		t.Fatalf("Duration() = %v, %v", d, ok)
	}
}

func TestTaskCompleteFirstCallWins(t *testing.T) {
	task := NewTask("in.pdf", "out.txt", "txt", Settings{})
	task.Start()
	task.Complete(false, "backend unavailable")
	task.Complete(true, "")

	success, ok := task.Succeeded()
	if !ok || success {
		t.Fatalf("second Complete overwrote the outcome: %v, %v", success, ok)
	}
	if task.Message() != "backend unavailable" {
		t.Errorf("Message() = %q", task.Message())
	}
}

func TestTaskSnapshot(t *testing.T) {
	task := NewTask("a.pdf", "a.md", "md", Settings{})
	task.Start()
	time.Sleep(time.Millisecond)
	task.Complete(true, "")

	rec := task.Snapshot()
	if rec.ID != task.ID || rec.SourcePath != "a.pdf" || rec.Format != "md" {
		t.Fatalf("snapshot identity mismatch: %+v", rec)
	}
	if !rec.Completed || !rec.Succeeded {
		t.Errorf("snapshot outcome: %+v", rec)
	}
	if rec.Duration <= 0 {
		t.Errorf("snapshot duration = %v", rec.Duration)
	}
	if rec.EndedAt.Before(rec.StartedAt) {
		t.Errorf("EndedAt %v before StartedAt %v", rec.EndedAt, rec.StartedAt)
	}
}
