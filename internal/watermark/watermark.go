// Package watermark turns a watermark asset plus size and opacity settings
// into an overlay placement for the target frame. It only emits the blend
// specification; pixel math belongs to the encoder.
package watermark

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"

	"reframe/internal/geometry"
	"reframe/internal/services"
)

// Size and opacity bounds accepted for a watermark.
const (
	MinSizePx  = 50
	MaxSizePx  = 500
	MinOpacity = 0.0
	MaxOpacity = 1.0
)

// Defaults applied when a watermark is requested without explicit settings.
const (
	DefaultSizePx  = 150
	DefaultOpacity = 0.7
)

// Margin is the fixed distance in pixels between the overlay and the frame edge.
const Margin = 24

// Anchor names a corner of the target frame the overlay is pinned to.
type Anchor string

const (
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// ParseAnchor converts a string into a known Anchor. Empty input selects the
// default bottom-right placement.
func ParseAnchor(value string) (Anchor, bool) {
	normalized := Anchor(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case "":
		return AnchorBottomRight, true
	case AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight:
		return normalized, true
	default:
		return "", false
	}
}

// Overlay is the resolved placement and blend specification for one watermark.
type Overlay struct {
	AssetPath string  `json:"asset_path"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	OffsetX   int     `json:"offset_x"`
	OffsetY   int     `json:"offset_y"`
	Opacity   float64 `json:"opacity"`
	Anchor    Anchor  `json:"anchor"`
}

// WatermarkWeight returns the linear blend weight applied to the watermark.
func (o Overlay) WatermarkWeight() float64 { return o.Opacity }

// BackgroundWeight returns the linear blend weight applied to the background.
func (o Overlay) BackgroundWeight() float64 { return 1 - o.Opacity }

// ProbeAsset reads the pixel dimensions from a watermark image header.
func ProbeAsset(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrWatermarkAsset, "", "open asset", path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrWatermarkAsset, "", "decode asset", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Compose resizes the asset so its longest side equals sizePx, preserves the
// asset aspect ratio, and pins the result to the requested corner of the
// target frame with the fixed margin.
func Compose(assetPath string, assetWidth, assetHeight, sizePx int, opacity float64, anchor Anchor) (Overlay, error) {
	if assetWidth <= 0 || assetHeight <= 0 {
		return Overlay{}, services.Wrap(services.ErrWatermarkAsset, "", "compose overlay",
			fmt.Sprintf("asset %q has zero area (%dx%d)", assetPath, assetWidth, assetHeight), nil)
	}
	if sizePx < MinSizePx || sizePx > MaxSizePx {
		return Overlay{}, services.Wrap(services.ErrWatermarkAsset, "", "compose overlay",
			fmt.Sprintf("size %dpx outside [%d, %d]", sizePx, MinSizePx, MaxSizePx), nil)
	}
	if math.IsNaN(opacity) || opacity < MinOpacity || opacity > MaxOpacity {
		return Overlay{}, services.Wrap(services.ErrWatermarkAsset, "", "compose overlay",
			fmt.Sprintf("opacity %.2f outside [%.1f, %.1f]", opacity, MinOpacity, MaxOpacity), nil)
	}
	if anchor == "" {
		anchor = AnchorBottomRight
	}

	var width, height int
	if assetWidth >= assetHeight {
		width = sizePx
		height = int(math.Round(float64(sizePx) * float64(assetHeight) / float64(assetWidth)))
	} else {
		height = sizePx
		width = int(math.Round(float64(sizePx) * float64(assetWidth) / float64(assetHeight)))
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	overlay := Overlay{
		AssetPath: assetPath,
		Width:     width,
		Height:    height,
		Opacity:   opacity,
		Anchor:    anchor,
	}

	switch anchor {
	case AnchorTopLeft:
		overlay.OffsetX, overlay.OffsetY = Margin, Margin
	case AnchorTopRight:
		overlay.OffsetX = geometry.TargetWidth - width - Margin
		overlay.OffsetY = Margin
	case AnchorBottomLeft:
		overlay.OffsetX = Margin
		overlay.OffsetY = geometry.TargetHeight - height - Margin
	case AnchorBottomRight:
		overlay.OffsetX = geometry.TargetWidth - width - Margin
		overlay.OffsetY = geometry.TargetHeight - height - Margin
	default:
		return Overlay{}, services.Wrap(services.ErrWatermarkAsset, "", "compose overlay",
			fmt.Sprintf("unknown anchor %q", string(anchor)), nil)
	}

	if overlay.OffsetX < 0 {
		overlay.OffsetX = 0
	}
	if overlay.OffsetY < 0 {
		overlay.OffsetY = 0
	}

	return overlay, nil
}
