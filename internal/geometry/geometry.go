package geometry

import (
	"fmt"
	"math"

	"reframe/internal/services"
)

// Target frame dimensions. Every output is exactly this size.
const (
	TargetWidth  = 1080
	TargetHeight = 1920
)

// Zoom bounds accepted by the resolver.
const (
	MinZoom = 1.0
	MaxZoom = 3.0
)

// Rect is an axis-aligned rectangle in source pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the rectangle area in pixels.
func (r Rect) Area() int64 {
	return int64(r.Width) * int64(r.Height)
}

// Plan describes the crop and scale a source needs to land on the target frame.
type Plan struct {
	Crop        Rect `json:"crop"`
	ScaleWidth  int  `json:"scale_width"`
	ScaleHeight int  `json:"scale_height"`
}

// Resolve computes the largest centered rectangle with the target aspect that
// fits inside the source, tightened by the zoom factor about its center, and
// pairs it with the fixed scale target. The crop never leaves source bounds
// and never drops below one pixel per side.
func Resolve(srcWidth, srcHeight int, zoom float64) (Plan, error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return Plan{}, services.Wrap(services.ErrGeometry, "", "resolve crop",
			fmt.Sprintf("non-positive source dimensions %dx%d", srcWidth, srcHeight), nil)
	}
	if math.IsNaN(zoom) || zoom < MinZoom || zoom > MaxZoom {
		return Plan{}, services.Wrap(services.ErrGeometry, "", "resolve crop",
			fmt.Sprintf("zoom %.2f outside [%.1f, %.1f]", zoom, MinZoom, MaxZoom), nil)
	}

	targetAspect := float64(TargetWidth) / float64(TargetHeight)
	sourceAspect := float64(srcWidth) / float64(srcHeight)

	var cropW, cropH float64
	if sourceAspect > targetAspect {
		// Source relatively wider: full height, trimmed width.
		cropH = float64(srcHeight)
		cropW = cropH * targetAspect
	} else {
		// Source as narrow or narrower than 9:16: full width, trimmed height.
		cropW = float64(srcWidth)
		cropH = cropW / targetAspect
	}

	cropW /= zoom
	cropH /= zoom

	crop := Rect{
		Width:  int(math.Round(cropW)),
		Height: int(math.Round(cropH)),
	}
	if crop.Width > srcWidth {
		crop.Width = srcWidth
	}
	if crop.Height > srcHeight {
		crop.Height = srcHeight
	}
	if crop.Width < 1 || crop.Height < 1 {
		return Plan{}, services.Wrap(services.ErrGeometry, "", "resolve crop",
			fmt.Sprintf("crop degenerates to %dx%d at zoom %.2f", crop.Width, crop.Height, zoom), nil)
	}

	crop.X = (srcWidth - crop.Width) / 2
	crop.Y = (srcHeight - crop.Height) / 2

	return Plan{
		Crop:        crop,
		ScaleWidth:  TargetWidth,
		ScaleHeight: TargetHeight,
	}, nil
}
