package geometry_test

import (
	"errors"
	"math"
	"testing"

	"reframe/internal/geometry"
	"reframe/internal/services"
)

func TestResolveUltrawideExample(t *testing.T) {
	plan, err := geometry.Resolve(3840, 1600, 1.0)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if plan.Crop.Width != 900 || plan.Crop.Height != 1600 {
		t.Fatalf("unexpected crop size: %dx%d", plan.Crop.Width, plan.Crop.Height)
	}
	if plan.Crop.X != 1470 {
		t.Fatalf("expected horizontally centered crop at x=1470, got %d", plan.Crop.X)
	}
	if plan.Crop.Y != 0 {
		t.Fatalf("expected full-height crop at y=0, got %d", plan.Crop.Y)
	}
	if plan.ScaleWidth != 1080 || plan.ScaleHeight != 1920 {
		t.Fatalf("unexpected scale target: %dx%d", plan.ScaleWidth, plan.ScaleHeight)
	}
}

func TestResolveNarrowSourceKeepsFullWidth(t *testing.T) {
	plan, err := geometry.Resolve(720, 1600, 1.0)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if plan.Crop.Width != 720 {
		t.Fatalf("expected full source width, got %d", plan.Crop.Width)
	}
	if plan.Crop.Height != 1280 {
		t.Fatalf("expected height 1280, got %d", plan.Crop.Height)
	}
	if plan.Crop.X != 0 {
		t.Fatalf("expected x=0, got %d", plan.Crop.X)
	}
	if plan.Crop.Y != (1600-1280)/2 {
		t.Fatalf("expected vertically centered crop, got y=%d", plan.Crop.Y)
	}
}

func TestResolveCropStaysInBoundsAcrossAspectsAndZooms(t *testing.T) {
	sources := [][2]int{
		{3840, 1600}, {1920, 1080}, {1080, 1920}, {640, 480},
		{480, 640}, {400, 1600}, {2560, 1440}, {100, 100},
	}
	targetAspect := 1080.0 / 1920.0
	for _, src := range sources {
		for zoom := 1.0; zoom <= 3.0; zoom += 0.25 {
			plan, err := geometry.Resolve(src[0], src[1], zoom)
			if err != nil {
				t.Fatalf("Resolve(%d, %d, %.2f) returned error: %v", src[0], src[1], zoom, err)
			}
			crop := plan.Crop
			if crop.X < 0 || crop.Y < 0 || crop.X+crop.Width > src[0] || crop.Y+crop.Height > src[1] {
				t.Fatalf("crop %+v escapes %dx%d at zoom %.2f", crop, src[0], src[1], zoom)
			}
			aspect := float64(crop.Width) / float64(crop.Height)
			if math.Abs(aspect-targetAspect) > 0.02 {
				t.Fatalf("crop aspect %.4f deviates from target for %dx%d zoom %.2f", aspect, src[0], src[1], zoom)
			}
		}
	}
}

func TestResolveZoomStrictlyShrinksArea(t *testing.T) {
	previous := int64(math.MaxInt64)
	for zoom := 1.0; zoom <= 3.0; zoom += 0.5 {
		plan, err := geometry.Resolve(1920, 1080, zoom)
		if err != nil {
			t.Fatalf("Resolve returned error at zoom %.2f: %v", zoom, err)
		}
		area := plan.Crop.Area()
		if area >= previous {
			t.Fatalf("expected area to shrink at zoom %.2f: %d >= %d", zoom, area, previous)
		}
		previous = area
	}
}

func TestResolveZoomOneIsMaximalCrop(t *testing.T) {
	plan, err := geometry.Resolve(1920, 1080, 1.0)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if plan.Crop.Height != 1080 {
		t.Fatalf("zoom 1.0 must retain full height, got %d", plan.Crop.Height)
	}
	want := int(math.Round(1080 * 1080.0 / 1920.0))
	if plan.Crop.Width != want {
		t.Fatalf("expected maximal aspect-correct width %d, got %d", want, plan.Crop.Width)
	}
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		w, h   int
		zoom   float64
	}{
		{"zero width", 0, 1080, 1.0},
		{"negative height", 1920, -1, 1.0},
		{"zoom too low", 1920, 1080, 0.5},
		{"zoom too high", 1920, 1080, 3.5},
		{"zoom NaN", 1920, 1080, math.NaN()},
	}
	for _, tc := range cases {
		if _, err := geometry.Resolve(tc.w, tc.h, tc.zoom); !errors.Is(err, services.ErrGeometry) {
			t.Fatalf("%s: expected geometry error, got %v", tc.name, err)
		}
	}
}

func TestResolveTinySourceNeverDegenerates(t *testing.T) {
	plan, err := geometry.Resolve(2, 4, 3.0)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if plan.Crop.Width < 1 || plan.Crop.Height < 1 {
		t.Fatalf("crop fell below one pixel per side: %+v", plan.Crop)
	}
}
