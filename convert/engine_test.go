package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/wudi/pdfconvert/ocr"
)

func TestRegistryGet(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})

	for _, format := range []string{"txt", "docx", "png", "jpg", "JPEG", "html", "md", "xlsx"} {
		if _, err := registry.Get(format); err != nil {
			t.Errorf("Get(%q): %v", format, err)
		}
	}

	_, err := registry.Get("pdf")
	if err == nil {
		t.Fatalf("Get(pdf): expected error")
	}
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Errorf("Get(pdf): got %T, want *ConfigurationError", err)
	}
}

func TestRegistryFormats(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})

	formats := registry.Formats()
	want := []string{"docx", "html", "jpg", "md", "png", "txt", "xlsx"}
	if len(formats) != len(want) {
		t.Fatalf("Formats() = %v", formats)
	}
	for i, id := range want {
		if formats[i] != id {
			t.Errorf("Formats()[%d] = %q, want %q", i, formats[i], id)
		}
	}

	for _, info := range registry.Info() {
		if info.Name == "" || info.Ext == "" {
			t.Errorf("Info() entry %q missing name or extension: %+v", info.ID, info)
		}
	}
}

func TestResolverDefaults(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})
	resolver := NewResolver(registry, nil)

	task := NewTask("in.pdf", "out.jpg", "jpg", Settings{Pages: AllPages()})
	p, err := resolver.Resolve(task)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.DPI != 200 || p.Quality != 90 {
		t.Errorf("raster defaults: DPI=%d Quality=%d", p.DPI, p.Quality)
	}
	if p.UseOCR || p.OCR != nil {
		t.Errorf("OCR resolved without being enabled")
	}

	task = NewTask("in.pdf", "out.html", "html", Settings{Pages: AllPages()})
	p, err = resolver.Resolve(task)
	if err != nil {
		t.Fatalf("Resolve html: %v", err)
	}
	if p.ImageQuality != 80 {
		t.Errorf("html ImageQuality = %d, want 80", p.ImageQuality)
	}
}

func TestResolverUnknownFormat(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})
	resolver := NewResolver(registry, nil)

	task := NewTask("in.pdf", "out.odt", "odt", Settings{})
	if _, err := resolver.Resolve(task); err == nil {
		t.Fatalf("Resolve accepted an unregistered format")
	}
}

func TestResolverBuildsProcessorOnce(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})

	built := 0
	factory := func(dataPath, code string) *ocr.Processor {
		built++
		return ocr.NewProcessor(dataPath, code)
	}
	resolver := NewResolver(registry, factory)

	settings := Settings{
		Pages: AllPages(),
		OCR:   OCRSettings{Enabled: true, Language: "simplified-chinese"},
	}
	var first *ocr.Processor
	for i := 0; i < 10; i++ {
		// Later tasks request a different language; the first construction
		// still wins.
		if i > 4 {
			settings.OCR.Language = "english"
		}
		task := NewTask("in.pdf", "out.txt", "txt", settings)
		p, err := resolver.Resolve(task)
		if err != nil {
			t.Fatalf("Resolve task %d: %v", i, err)
		}
		if p.OCR == nil {
			t.Fatalf("task %d resolved without a processor", i)
		}
		if first == nil {
			first = p.OCR
		} else if p.OCR != first {
			t.Fatalf("task %d got a different processor", i)
		}
	}
	if built != 1 {
		t.Fatalf("factory ran %d times, want 1", built)
	}
	if first.Language() != "chi_sim+eng" {
		t.Errorf("processor language = %q", first.Language())
	}
}

func TestResolverOCRDefaults(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})
	resolver := NewResolver(registry, nil)

	task := NewTask("in.pdf", "out.txt", "txt", Settings{
		Pages: AllPages(),
		OCR:   OCRSettings{Enabled: true},
	})
	p, err := resolver.Resolve(task)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.OCRDPI != 300 {
		t.Errorf("OCRDPI = %d, want 300", p.OCRDPI)
	}
	if resolver.Processor() == nil {
		t.Errorf("Processor() is nil after an OCR resolve")
	}
}

func TestEngineEvents(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage("hello")}}
	registry := newTestRegistry(src, &fakeTextExtractor{text: "hello"}, &fakeTables{})

	var events []Event
	engine := NewEngine(registry, WithSink(func(e Event) { events = append(events, e) }))

	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		engine.CreateTask("in.pdf", filepath.Join(dir, fmt.Sprintf("out%d.txt", i)), "txt", Settings{Pages: AllPages()})
	}
	engine.ExecuteAll(context.Background())

	var progress []int
	started, completed, all := 0, 0, 0
	for _, e := range events {
		switch e.Kind {
		case EventTaskStarted:
			started++
		case EventTaskCompleted:
			completed++
			if !e.Success {
				t.Errorf("task failed: %s", e.Message)
			}
		case EventProgress:
			progress = append(progress, e.Progress)
		case EventAllCompleted:
			all++
		}
	}
	if started != 3 || completed != 3 {
		t.Errorf("started=%d completed=%d, want 3 each", started, completed)
	}
	if all != 1 {
		t.Errorf("all-completed fired %d times", all)
	}
	if len(progress) != 3 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress = %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress regressed: %v", progress)
		}
	}
	if events[len(events)-1].Kind != EventAllCompleted {
		t.Errorf("last event kind = %v", events[len(events)-1].Kind)
	}
}

func TestEngineAllFailuresStillCompletes(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{err: errors.New("boom")}, &fakeTables{})

	var all int
	engine := NewEngine(registry, WithSink(func(e Event) {
		if e.Kind == EventAllCompleted {
			all++
		}
	}))

	dir := t.TempDir()
	engine.CreateTask("a.pdf", filepath.Join(dir, "a.txt"), "txt", Settings{Pages: AllPages()})
	engine.CreateTask("b.pdf", filepath.Join(dir, "b.txt"), "txt", Settings{Pages: AllPages()})
	engine.ExecuteAll(context.Background())

	if all != 1 {
		t.Fatalf("all-completed fired %d times", all)
	}
	for _, task := range engine.Tasks() {
		success, ok := task.Succeeded()
		if !ok {
			t.Fatalf("task %s never completed", task.SourcePath)
		}
		if success {
			t.Errorf("task %s succeeded unexpectedly", task.SourcePath)
		}
		if task.Message() == "" {
			t.Errorf("failed task %s has no message", task.SourcePath)
		}
	}
}

func TestEngineUnknownFormatFailsTask(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})
	engine := NewEngine(registry)

	task := engine.CreateTask("in.pdf", "out.odt", "odt", Settings{})
	if engine.ExecuteOne(context.Background(), task) {
		t.Fatalf("unregistered format executed successfully")
	}
	if task.Message() == "" {
		t.Errorf("failed task has no message")
	}
}

func TestEngineClearTasks(t *testing.T) {
	registry := newTestRegistry(&fakeSource{}, &fakeTextExtractor{}, &fakeTables{})
	engine := NewEngine(registry)
	engine.CreateTask("in.pdf", "out.txt", "txt", Settings{})
	engine.ClearTasks()
	if len(engine.Tasks()) != 0 {
		t.Fatalf("ClearTasks left %d tasks", len(engine.Tasks()))
	}
}

func TestBatchOmitsFailures(t *testing.T) {
	dir := t.TempDir()
	backend := &failingNthExtractor{failAt: 2, text: "content"}
	converter := NewTextConverter(backend, nopLogger())

	sources := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}
	written := Batch(context.Background(), converter, sources, dir, Params{})
	if len(written) != 4 {
		t.Fatalf("Batch wrote %d outputs, want 4", len(written))
	}
	for _, path := range written {
		if filepath.Base(path) == "c.txt" {
			t.Errorf("failed source produced output %s", path)
		}
	}
}

// failingNthExtractor fails on its nth call (zero-based) and succeeds
// otherwise.
type failingNthExtractor struct {
	failAt int
	text   string
	calls  int
}

func (e *failingNthExtractor) ExtractText(path string, pages []int) (string, error) {
	call := e.calls
	e.calls++
	if call == e.failAt {
		return "", errors.New("extraction failed")
	}
	return e.text, nil
}
