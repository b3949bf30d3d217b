package preset

import (
	"fmt"
	"strings"

	"reframe/internal/services"
)

// Quality is the abstract quality level a user picks for a conversion.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

var allQualities = []Quality{QualityHigh, QualityMedium, QualityLow}

// AllQualities returns the ordered list of known quality levels.
func AllQualities() []Quality {
	cp := make([]Quality, len(allQualities))
	copy(cp, allQualities)
	return cp
}

// ParseQuality converts a string into a known Quality.
func ParseQuality(value string) (Quality, bool) {
	normalized := Quality(strings.ToLower(strings.TrimSpace(value)))
	for _, q := range allQualities {
		if q == normalized {
			return q, true
		}
	}
	return "", false
}

// Params holds the concrete encoder settings a quality level maps to.
type Params struct {
	EncoderPreset string `json:"encoder_preset"`
	CRF           int    `json:"crf"`
	MaxRate       string `json:"max_rate"`
	AudioBitrate  string `json:"audio_bitrate"`
	ScaleFlags    string `json:"scale_flags"`
}

var paramsByQuality = map[Quality]Params{
	QualityHigh:   {EncoderPreset: "slow", CRF: 18, MaxRate: "5M", AudioBitrate: "320k", ScaleFlags: "lanczos"},
	QualityMedium: {EncoderPreset: "medium", CRF: 23, MaxRate: "2M", AudioBitrate: "192k", ScaleFlags: "bicubic"},
	QualityLow:    {EncoderPreset: "faster", CRF: 28, MaxRate: "1M", AudioBitrate: "128k", ScaleFlags: "bilinear"},
}

// Map resolves a quality level to encoder parameters. Unknown values are
// rejected defensively; validated input never reaches that branch.
func Map(quality Quality) (Params, error) {
	params, ok := paramsByQuality[quality]
	if !ok {
		return Params{}, services.Wrap(services.ErrUnknownPreset, "", "map preset",
			fmt.Sprintf("quality %q", string(quality)), nil)
	}
	return params, nil
}
