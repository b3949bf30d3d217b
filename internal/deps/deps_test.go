package deps

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"reframe/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Detail)
	}

	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}

	if results[2].Available {
		t.Fatal("expected unset command to be unavailable")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %s", results[2].Detail)
	}
}

func TestCheckAllReportsWatermark(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "logo.png")
	writePNG(t, asset, 120, 60)

	cfg := config.Default()
	cfg.Paths.Watermark = asset

	statuses := CheckAll(&cfg)
	if len(statuses) != 3 {
		t.Fatalf("statuses = %d, want 3", len(statuses))
	}
	wm := statuses[2]
	if wm.Name != "watermark" || !wm.Optional {
		t.Fatalf("unexpected watermark status: %#v", wm)
	}
	if !wm.Available {
		t.Fatalf("watermark unavailable: %s", wm.Detail)
	}
	if wm.Detail != "120x60" {
		t.Fatalf("watermark detail = %q", wm.Detail)
	}
}

func TestCheckAllBadWatermark(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(asset, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.Watermark = asset

	statuses := CheckAll(&cfg)
	wm := statuses[len(statuses)-1]
	if wm.Available {
		t.Fatal("expected corrupt watermark to be unavailable")
	}
	if wm.Detail == "" {
		t.Fatal("expected detail for corrupt watermark")
	}
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}
