package history_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reframe/internal/batch"
	"reframe/internal/history"
	"reframe/internal/preset"
)

func newRun(t *testing.T, count int) *batch.Run {
	t.Helper()
	dir := t.TempDir()
	jobs := make([]*batch.Job, 0, count)
	for i := 0; i < count; i++ {
		source := filepath.Join(dir, fmt.Sprintf("clip%02d.mp4", i))
		if err := os.WriteFile(source, []byte("payload"), 0o644); err != nil {
			t.Fatalf("write source: %v", err)
		}
		job, err := batch.NewJob(batch.Params{
			SourcePath: source,
			OutputPath: batch.OutputPath(source, "", "_vertical"),
			Zoom:       1.0,
			Quality:    preset.QualityMedium,
		})
		if err != nil {
			t.Fatalf("NewJob: %v", err)
		}
		jobs = append(jobs, job)
	}
	return batch.NewRun(jobs)
}

func openStore(t *testing.T, keep int) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"), keep)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListRun(t *testing.T) {
	store := openStore(t, 0)
	ctx := context.Background()

	run := newRun(t, 2)
	summary := batch.Summary{
		RunID:     run.ID,
		Total:     2,
		Succeeded: 2,
		Duration:  90 * time.Second,
	}
	if err := store.RecordRun(ctx, run, summary); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	record := runs[0]
	if record.ID != run.ID {
		t.Fatalf("run id = %q, want %q", record.ID, run.ID)
	}
	if record.Total != 2 || record.Succeeded != 2 || record.Failed != 0 {
		t.Fatalf("run record = %+v", record)
	}
	if record.Duration != 90*time.Second {
		t.Fatalf("duration = %v, want 90s", record.Duration)
	}

	jobs, err := store.ListJobs(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	for i, job := range jobs {
		if job.RunID != run.ID {
			t.Errorf("job[%d] run id = %q", i, job.RunID)
		}
		if job.Status != batch.StatusPending {
			t.Errorf("job[%d] status = %v", i, job.Status)
		}
		if job.Quality != string(preset.QualityMedium) {
			t.Errorf("job[%d] quality = %q", i, job.Quality)
		}
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t, 0)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run := newRun(t, 1)
		if err := store.RecordRun(ctx, run, batch.Summary{RunID: run.ID, Total: 1}); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Fatalf("runs not newest first: %v vs inserted %v", runs, ids)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store := openStore(t, 2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		run := newRun(t, 1)
		if err := store.RecordRun(ctx, run, batch.Summary{RunID: run.ID, Total: 1}); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs after prune = %d, want 2", len(runs))
	}
	if runs[0].ID != ids[3] || runs[1].ID != ids[2] {
		t.Fatalf("prune kept wrong runs: %v, inserted %v", runs, ids)
	}

	// Cascade removes the pruned runs' jobs too.
	jobs, err := store.ListJobs(ctx, ids[0])
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("pruned run still has %d jobs", len(jobs))
	}
}
