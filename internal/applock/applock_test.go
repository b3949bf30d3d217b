package applock_test

import (
	"errors"
	"os"
	"testing"

	"reframe/internal/applock"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock := applock.New(dir)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestSecondAcquireFails(t *testing.T) {
	dir := t.TempDir()
	first := applock.New(dir)
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second := applock.New(dir)
	err := second.Acquire()
	if !errors.Is(err, applock.ErrAlreadyLocked) {
		t.Fatalf("second Acquire error = %v, want ErrAlreadyLocked", err)
	}
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/state"
	lock := applock.New(dir)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()
}
