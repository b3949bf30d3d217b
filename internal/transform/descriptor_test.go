package transform_test

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"reframe/internal/preset"
	"reframe/internal/services"
	"reframe/internal/transform"
	"reframe/internal/watermark"
)

func writeAsset(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logo.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode asset: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close asset: %v", err)
	}
	return path
}

func TestBuildIsDeterministic(t *testing.T) {
	asset := writeAsset(t, 100, 50)
	inputs := transform.Inputs{
		JobLabel:     "clip.mp4",
		SourceWidth:  1920,
		SourceHeight: 1080,
		Zoom:         1.5,
		Quality:      preset.QualityMedium,
		Watermark: &transform.WatermarkInput{
			AssetPath: asset,
			SizePx:    200,
			Opacity:   0.7,
			Anchor:    watermark.AnchorBottomRight,
		},
	}

	first, err := transform.Build(inputs)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	second, err := transform.Build(inputs)
	if err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("descriptors differ:\n%+v\n%+v", first, second)
	}

	firstJSON, err := first.MarshalText()
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	secondJSON, err := second.MarshalText()
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("serialized descriptors differ:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestBuildWithoutWatermark(t *testing.T) {
	descriptor, err := transform.Build(transform.Inputs{
		SourceWidth:  1280,
		SourceHeight: 720,
		Zoom:         1.0,
		Quality:      preset.QualityHigh,
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if descriptor.Overlay != nil {
		t.Fatalf("expected no overlay, got %+v", descriptor.Overlay)
	}
	if descriptor.Geometry.ScaleWidth != 1080 || descriptor.Geometry.ScaleHeight != 1920 {
		t.Fatalf("unexpected scale target: %+v", descriptor.Geometry)
	}
}

func TestBuildPropagatesFirstFailureWithJobLabel(t *testing.T) {
	_, err := transform.Build(transform.Inputs{
		JobLabel:     "broken.mp4",
		SourceWidth:  0,
		SourceHeight: 1080,
		Zoom:         1.0,
		Quality:      preset.QualityHigh,
	})
	if !errors.Is(err, services.ErrGeometry) {
		t.Fatalf("expected geometry error, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken.mp4") {
		t.Fatalf("expected job label in error, got %q", err.Error())
	}
}

func TestBuildPropagatesPresetFailure(t *testing.T) {
	_, err := transform.Build(transform.Inputs{
		SourceWidth:  1920,
		SourceHeight: 1080,
		Zoom:         1.0,
		Quality:      preset.Quality("ultra"),
	})
	if !errors.Is(err, services.ErrUnknownPreset) {
		t.Fatalf("expected unknown preset error, got %v", err)
	}
}

func TestBuildPropagatesWatermarkFailure(t *testing.T) {
	_, err := transform.Build(transform.Inputs{
		SourceWidth:  1920,
		SourceHeight: 1080,
		Zoom:         1.0,
		Quality:      preset.QualityHigh,
		Watermark: &transform.WatermarkInput{
			AssetPath: filepath.Join(t.TempDir(), "absent.png"),
			SizePx:    150,
			Opacity:   0.7,
		},
	})
	if !errors.Is(err, services.ErrWatermarkAsset) {
		t.Fatalf("expected watermark asset error, got %v", err)
	}
}
