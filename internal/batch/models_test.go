package batch

import (
	"os"
	"path/filepath"
	"testing"

	"reframe/internal/preset"
)

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake video payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func newTestJob(t *testing.T) *Job {
	t.Helper()
	source := writeSource(t, "clip.mp4")
	job, err := NewJob(Params{
		SourcePath: source,
		OutputPath: OutputPath(source, "", "_vertical"),
		Zoom:       1.0,
		Quality:    preset.QualityHigh,
	})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

func TestNewJobValidation(t *testing.T) {
	source := writeSource(t, "clip.mp4")
	valid := Params{
		SourcePath: source,
		OutputPath: source + ".out.mp4",
		Zoom:       1.5,
		Quality:    preset.QualityMedium,
	}

	if _, err := NewJob(valid); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing source", func(p *Params) { p.SourcePath = filepath.Join(t.TempDir(), "nope.mp4") }},
		{"empty output", func(p *Params) { p.OutputPath = "" }},
		{"zoom too low", func(p *Params) { p.Zoom = 0.5 }},
		{"zoom too high", func(p *Params) { p.Zoom = 9.0 }},
		{"unknown quality", func(p *Params) { p.Quality = preset.Quality("ultra") }},
		{"watermark size out of range", func(p *Params) {
			p.Watermark = &WatermarkConfig{AssetPath: source, SizePx: 10, Opacity: 0.5}
		}},
		{"watermark opacity out of range", func(p *Params) {
			p.Watermark = &WatermarkConfig{AssetPath: source, SizePx: 200, Opacity: 1.5}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := valid
			tc.mutate(&params)
			if _, err := NewJob(params); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	job := newTestJob(t)
	if got := job.Status(); got != StatusPending {
		t.Fatalf("new job status = %v, want %v", got, StatusPending)
	}
	if !job.start() {
		t.Fatal("start on pending job returned false")
	}
	if job.start() {
		t.Fatal("second start returned true")
	}
	if !job.setProgress(0.4) {
		t.Fatal("setProgress 0.4 rejected")
	}
	if job.setProgress(0.3) {
		t.Fatal("progress regressed")
	}
	if !job.succeed() {
		t.Fatal("succeed on running job returned false")
	}
	snap := job.Snapshot()
	if snap.Status != StatusSucceeded {
		t.Fatalf("status = %v, want %v", snap.Status, StatusSucceeded)
	}
	if snap.Progress != 1 {
		t.Fatalf("final progress = %v, want 1", snap.Progress)
	}
	if job.fail("late") {
		t.Fatal("fail after terminal state returned true")
	}
}

func TestJobCancelFromPending(t *testing.T) {
	job := newTestJob(t)
	if !job.cancel("never started") {
		t.Fatal("cancel on pending job returned false")
	}
	snap := job.Snapshot()
	if snap.Status != StatusCancelled {
		t.Fatalf("status = %v, want %v", snap.Status, StatusCancelled)
	}
	if snap.Error != "never started" {
		t.Fatalf("error message = %q", snap.Error)
	}
}

func TestJobProgressClamped(t *testing.T) {
	job := newTestJob(t)
	job.start()
	if !job.setProgress(4.2) {
		t.Fatal("overshoot progress rejected")
	}
	if got := job.Progress(); got != 1 {
		t.Fatalf("progress = %v, want clamp to 1", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, status := range AllStatuses() {
		parsed, ok := ParseStatus(string(status))
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %v, %v", status, parsed, ok)
		}
	}
	if _, ok := ParseStatus("exploded"); ok {
		t.Fatal("ParseStatus accepted unknown value")
	}
}

func TestSupportedSource(t *testing.T) {
	for _, path := range []string{"a.mp4", "B.MOV", "c.mkv", "d.avi", "e.wmv"} {
		if !SupportedSource(path) {
			t.Errorf("SupportedSource(%q) = false", path)
		}
	}
	for _, path := range []string{"a.webm", "b.txt", "noext"} {
		if SupportedSource(path) {
			t.Errorf("SupportedSource(%q) = true", path)
		}
	}
}

func TestExpandFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mov", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	sources, err := ExpandFolder(dir)
	if err != nil {
		t.Fatalf("ExpandFolder: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "b.mp4")}
	if len(sources) != len(want) {
		t.Fatalf("sources = %v, want %v", sources, want)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Fatalf("sources[%d] = %q, want %q", i, sources[i], want[i])
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/videos/clip.mov", "", "_vertical")
	want := filepath.Join("/videos", "clip_vertical.mp4")
	if got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}

	got = OutputPath("/videos/clip.mov", "/out", "_vertical")
	want = filepath.Join("/out", "clip_vertical.mp4")
	if got != want {
		t.Fatalf("OutputPath with dir = %q, want %q", got, want)
	}
}
