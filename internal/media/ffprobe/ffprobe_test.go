package ffprobe

import (
	"testing"
	"time"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 3840, "height": 1600, "duration": "90.5"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "clip.mp4", "duration": "91.042000", "size": "1048576", "format_name": "mov,mp4"}
}`

func TestParseAndGeometry(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	width, height, err := result.Geometry()
	if err != nil {
		t.Fatalf("Geometry returned error: %v", err)
	}
	if width != 3840 || height != 1600 {
		t.Fatalf("unexpected geometry %dx%d", width, height)
	}
}

func TestDurationPrefersContainer(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := time.Duration(91.042 * float64(time.Second))
	if got := result.Duration(); got != want {
		t.Fatalf("unexpected duration: got %v want %v", got, want)
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Width: 1280, Height: 720, Duration: "12.5"}},
	}
	if got := result.Duration(); got != 12500*time.Millisecond {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestGeometryRequiresVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, _, err := result.Geometry(); err == nil {
		t.Fatal("expected error when no video stream present")
	}

	zero := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, _, err := zero.Geometry(); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
