// Package transform combines geometry, preset, and watermark resolution into
// one immutable description of the work a single conversion requires. A
// Descriptor carries no execution state; the encoder adapter derives its
// argument list from it.
package transform

import (
	"encoding/json"
	"fmt"

	"reframe/internal/geometry"
	"reframe/internal/preset"
	"reframe/internal/watermark"
)

// WatermarkInput names the watermark settings a job carries.
type WatermarkInput struct {
	AssetPath string
	SizePx    int
	Opacity   float64
	Anchor    watermark.Anchor
}

// Inputs is everything Build needs to resolve a Descriptor.
type Inputs struct {
	// JobLabel tags build failures with the job identity.
	JobLabel     string
	SourceWidth  int
	SourceHeight int
	Zoom         float64
	Quality      preset.Quality
	Watermark    *WatermarkInput
}

// Descriptor is the fully resolved, side-effect-free plan for one job.
// Rebuild it on parameter change; never mutate it.
type Descriptor struct {
	Geometry geometry.Plan      `json:"geometry"`
	Encoder  preset.Params      `json:"encoder"`
	Overlay  *watermark.Overlay `json:"overlay,omitempty"`
}

// Build resolves the three inputs into a Descriptor. Identical Inputs always
// yield an identical Descriptor. The first failure aborts the build, tagged
// with the job label.
func Build(in Inputs) (Descriptor, error) {
	plan, err := geometry.Resolve(in.SourceWidth, in.SourceHeight, in.Zoom)
	if err != nil {
		return Descriptor{}, tag(in.JobLabel, err)
	}

	params, err := preset.Map(in.Quality)
	if err != nil {
		return Descriptor{}, tag(in.JobLabel, err)
	}

	descriptor := Descriptor{Geometry: plan, Encoder: params}

	if in.Watermark != nil {
		assetW, assetH, err := watermark.ProbeAsset(in.Watermark.AssetPath)
		if err != nil {
			return Descriptor{}, tag(in.JobLabel, err)
		}
		overlay, err := watermark.Compose(in.Watermark.AssetPath, assetW, assetH, in.Watermark.SizePx, in.Watermark.Opacity, in.Watermark.Anchor)
		if err != nil {
			return Descriptor{}, tag(in.JobLabel, err)
		}
		descriptor.Overlay = &overlay
	}

	return descriptor, nil
}

// MarshalText serializes a Descriptor for persistence and diagnostics.
func (d Descriptor) MarshalText() ([]byte, error) {
	return json.Marshal(struct {
		Geometry geometry.Plan      `json:"geometry"`
		Encoder  preset.Params      `json:"encoder"`
		Overlay  *watermark.Overlay `json:"overlay,omitempty"`
	}(d))
}

func tag(label string, err error) error {
	if label == "" {
		return err
	}
	return fmt.Errorf("%s: %w", label, err)
}
