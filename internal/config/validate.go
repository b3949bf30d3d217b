package config

import (
	"errors"
	"fmt"
	"strings"

	"reframe/internal/geometry"
	"reframe/internal/preset"
	"reframe/internal/watermark"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if _, ok := preset.ParseQuality(c.Defaults.Quality); !ok {
		return fmt.Errorf("defaults.quality must be one of high, medium, low; got %q", c.Defaults.Quality)
	}
	if c.Defaults.Zoom < geometry.MinZoom || c.Defaults.Zoom > geometry.MaxZoom {
		return fmt.Errorf("defaults.zoom must be between %.1f and %.1f", geometry.MinZoom, geometry.MaxZoom)
	}
	if c.Defaults.WatermarkSize < watermark.MinSizePx || c.Defaults.WatermarkSize > watermark.MaxSizePx {
		return fmt.Errorf("defaults.watermark_size must be between %d and %d pixels", watermark.MinSizePx, watermark.MaxSizePx)
	}
	if c.Defaults.WatermarkOpacity < watermark.MinOpacity || c.Defaults.WatermarkOpacity > watermark.MaxOpacity {
		return fmt.Errorf("defaults.watermark_opacity must be between %.1f and %.1f", watermark.MinOpacity, watermark.MaxOpacity)
	}
	if _, ok := watermark.ParseAnchor(c.Defaults.WatermarkAnchor); !ok {
		return fmt.Errorf("defaults.watermark_anchor %q is not a known corner", c.Defaults.WatermarkAnchor)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Output.Suffix) == "" {
		return errors.New("output.suffix must be set; an empty suffix would overwrite sources converted in place")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Keep < 1 {
		return errors.New("history.keep must be at least 1 when history is enabled")
	}
	return nil
}
