package ffmpeg

import (
	"reflect"
	"strings"
	"testing"

	"reframe/internal/geometry"
	"reframe/internal/preset"
	"reframe/internal/transform"
	"reframe/internal/watermark"
)

func sampleDescriptor(overlay *watermark.Overlay) transform.Descriptor {
	return transform.Descriptor{
		Geometry: geometry.Plan{
			Crop:        geometry.Rect{X: 1470, Y: 0, Width: 900, Height: 1600},
			ScaleWidth:  1080,
			ScaleHeight: 1920,
		},
		Encoder: preset.Params{EncoderPreset: "slow", CRF: 18, MaxRate: "5M", AudioBitrate: "320k", ScaleFlags: "lanczos"},
		Overlay: overlay,
	}
}

func TestArgsWithoutOverlay(t *testing.T) {
	args := Args(sampleDescriptor(nil), "in.mp4", "out.mp4")

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-vf crop=900:1600:1470:0,scale=1080:1920:flags=lanczos") {
		t.Fatalf("missing crop/scale filter in %q", joined)
	}
	for _, want := range []string{"-preset slow", "-crf 18", "-maxrate 5M", "-b:a 320k", "-progress pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("expected output path last, got %q", args[len(args)-1])
	}
	if strings.Contains(joined, "-filter_complex") {
		t.Fatal("no overlay requested but filter_complex present")
	}
}

func TestArgsWithOverlay(t *testing.T) {
	overlay := &watermark.Overlay{
		AssetPath: "logo.png",
		Width:     200,
		Height:    100,
		OffsetX:   856,
		OffsetY:   1796,
		Opacity:   0.5,
		Anchor:    watermark.AnchorBottomRight,
	}
	args := Args(sampleDescriptor(overlay), "in.mp4", "out.mp4")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"[1:v]scale=200:100,format=rgba,colorchannelmixer=aa=0.5[wm]",
		"[base][wm]overlay=856:1796[outv]",
		"-map [outv]",
		"-map 0:a?",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}
}

func TestArgsDeterministic(t *testing.T) {
	d := sampleDescriptor(nil)
	first := Args(d, "in.mp4", "out.mp4")
	second := Args(d, "in.mp4", "out.mp4")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("argument lists differ:\n%v\n%v", first, second)
	}
}
