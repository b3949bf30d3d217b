package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGeometry marks invalid or degenerate source dimensions and zoom values.
	ErrGeometry = errors.New("geometry error")
	// ErrUnknownPreset marks a quality value outside the known enum. Validated
	// input should make this unreachable.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrWatermarkAsset marks an unreadable or zero-area watermark image.
	ErrWatermarkAsset = errors.New("watermark asset error")
	// ErrEncoderSpawn marks an encoder binary that could not be launched at
	// all. Fatal to the whole batch: no subsequent job can succeed either.
	ErrEncoderSpawn = errors.New("encoder unavailable")
	// ErrEncoderRuntime marks a non-zero exit or crash of a launched encoder.
	// Local to one job.
	ErrEncoderRuntime = errors.New("encoder failed")
	// ErrCancelled marks a job stopped by request. A status, not a fault.
	ErrCancelled = errors.New("cancelled")
)

// Wrap builds an error message that includes job context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEncoderRuntime
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// BatchFatal reports whether an error should abort the rest of the batch
// rather than just the affected job.
func BatchFatal(err error) bool {
	return errors.Is(err, ErrEncoderSpawn)
}

// IsCancellation reports whether an error represents a user stop rather than
// a failure.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
