package convert

import (
	"context"
	"math"

	"github.com/wudi/pdfconvert/ocr"
	"github.com/wudi/pdfconvert/observability"
)

// EventKind identifies an engine notification.
type EventKind int

const (
	// EventTaskStarted fires when a task begins executing.
	EventTaskStarted EventKind = iota
	// EventProgress fires after each task with the batch completion percent.
	EventProgress
	// EventTaskCompleted fires exactly once per task with its outcome.
	EventTaskCompleted
	// EventAllCompleted fires once after the last task, regardless of
	// individual outcomes.
	EventAllCompleted
)

// Event is one engine notification delivered through the caller's sink.
type Event struct {
	Kind EventKind
	// Task is set for task-scoped events, nil for EventAllCompleted and
	// EventProgress.
	Task *Task
	// Progress is the batch completion percent for EventProgress.
	Progress int
	// Success and Message carry the outcome for EventTaskCompleted.
	Success bool
	Message string
}

// Sink receives engine events. Delivery is synchronous and in order:
// started, then completed per task, a progress event after each task, and a
// single all-completed event last.
type Sink func(Event)

// Engine owns the task list and drives conversions sequentially. It is not
// safe for concurrent use: callers must not mutate the task list while
// ExecuteAll runs.
type Engine struct {
	registry *Registry
	resolver *Resolver
	tasks    []*Task
	sink     Sink
	logger   observability.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSink sets the event sink.
func WithSink(sink Sink) EngineOption {
	return func(e *Engine) { e.sink = sink }
}

// WithEngineLogger sets the logger.
func WithEngineLogger(logger observability.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithProcessorFactory sets how the shared recognition adapter is built on
// first use.
func WithProcessorFactory(factory ProcessorFactory) EngineOption {
	return func(e *Engine) { e.resolver = NewResolver(e.registry, factory) }
}

// NewEngine builds an engine over the given converter registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		logger:   observability.NopLogger{},
	}
	e.resolver = NewResolver(registry, nil)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateTask builds a task and appends it to the engine's list.
func (e *Engine) CreateTask(source, dest, format string, settings Settings) *Task {
	task := NewTask(source, dest, format, settings)
	e.tasks = append(e.tasks, task)
	return task
}

// AddTasks appends prepared tasks.
func (e *Engine) AddTasks(tasks ...*Task) {
	e.tasks = append(e.tasks, tasks...)
}

// ClearTasks empties the task list. Must not be called while ExecuteAll
// runs.
func (e *Engine) ClearTasks() { e.tasks = nil }

// Tasks returns a snapshot of the task list.
func (e *Engine) Tasks() []*Task {
	out := make([]*Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Processor exposes the shared recognition adapter for inspection; nil until
// a task has requested recognition.
func (e *Engine) Processor() *ocr.Processor { return e.resolver.Processor() }

// SupportedFormats lists registered target formats.
func (e *Engine) SupportedFormats() []string { return e.registry.Formats() }

// FormatInfo lists registered formats with display names.
func (e *Engine) FormatInfo() []FormatInfo { return e.registry.Info() }

// ExecuteAll runs every task in list order, blocking until all have
// completed. A progress event follows each task; one all-completed event
// follows the last task even when every task failed.
func (e *Engine) ExecuteAll(ctx context.Context) {
	total := len(e.tasks)
	for completed, task := range e.tasks {
		e.ExecuteOne(ctx, task)
		progress := int(math.Round(100 * float64(completed+1) / float64(total)))
		e.emit(Event{Kind: EventProgress, Progress: progress})
	}
	e.emit(Event{Kind: EventAllCompleted})
	e.logger.Info("all tasks completed", observability.Int(observability.MetricTaskCount, total))
}

// ExecuteOne drives a single task through its lifecycle. Nothing a converter
// raises escapes this boundary; the task always reaches a terminal state.
func (e *Engine) ExecuteOne(ctx context.Context, task *Task) bool {
	task.Start()
	e.emit(Event{Kind: EventTaskStarted, Task: task})
	e.logger.Info("task started",
		observability.String("source", task.SourcePath),
		observability.String("format", task.Format))

	success, message := e.run(ctx, task)
	task.Complete(success, message)
	e.emit(Event{Kind: EventTaskCompleted, Task: task, Success: success, Message: message})
	if d, ok := task.Duration(); ok {
		e.logger.Info("task completed",
			observability.String("source", task.SourcePath),
			observability.Bool("success", success),
			observability.Int64(observability.MetricTaskDuration, d.Milliseconds()))
	}
	return success
}

func (e *Engine) run(ctx context.Context, task *Task) (success bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			success = false
			message = recoveredMessage(r)
		}
	}()

	params, err := e.resolver.Resolve(task)
	if err != nil {
		return false, err.Error()
	}
	converter, err := e.registry.Get(task.Format)
	if err != nil {
		return false, err.Error()
	}
	if mc, ok := converter.(MessageConverter); ok {
		success, message = mc.ConvertWithMessage(ctx, task.SourcePath, task.DestPath, params)
	} else {
		success = converter.Convert(ctx, task.SourcePath, task.DestPath, params)
	}
	if !success && message == "" {
		message = "conversion failed"
	}
	return success, message
}

func recoveredMessage(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "conversion failed"
}

func (e *Engine) emit(event Event) {
	if e.sink != nil {
		e.sink(event)
	}
}
