package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"reframe/internal/transform"
)

// Args derives the complete ffmpeg argument list from a descriptor and the
// job's source and output paths. Pure: identical inputs yield identical
// arguments.
func Args(d transform.Descriptor, sourcePath, outputPath string) []string {
	args := []string{
		"-y", "-hide_banner", "-nostats",
		"-progress", "pipe:1",
		"-i", sourcePath,
	}

	crop := d.Geometry.Crop
	baseFilter := fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d:flags=%s",
		crop.Width, crop.Height, crop.X, crop.Y,
		d.Geometry.ScaleWidth, d.Geometry.ScaleHeight, d.Encoder.ScaleFlags)

	if d.Overlay != nil {
		args = append(args, "-i", d.Overlay.AssetPath)
		filter := strings.Join([]string{
			"[0:v]" + baseFilter + "[base]",
			fmt.Sprintf("[1:v]scale=%d:%d,format=rgba,colorchannelmixer=aa=%s[wm]",
				d.Overlay.Width, d.Overlay.Height, formatOpacity(d.Overlay.Opacity)),
			fmt.Sprintf("[base][wm]overlay=%d:%d[outv]", d.Overlay.OffsetX, d.Overlay.OffsetY),
		}, ";")
		args = append(args, "-filter_complex", filter, "-map", "[outv]", "-map", "0:a?")
	} else {
		args = append(args, "-vf", baseFilter)
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", d.Encoder.EncoderPreset,
		"-crf", strconv.Itoa(d.Encoder.CRF),
		"-maxrate", d.Encoder.MaxRate,
		"-bufsize", "10M",
		"-pix_fmt", "yuv420p",
		"-profile:v", "high",
		"-level", "4.2",
		"-c:a", "aac",
		"-b:a", d.Encoder.AudioBitrate,
		"-ar", "48000",
		outputPath,
	)
	return args
}

func formatOpacity(opacity float64) string {
	return strconv.FormatFloat(opacity, 'f', -1, 64)
}
