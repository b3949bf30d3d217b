package config

const (
	defaultStateDir         = "~/.local/share/reframe"
	defaultLogDir           = "~/.local/share/reframe/logs"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultQuality          = "high"
	defaultZoom             = 1.0
	defaultWatermarkSize    = 150
	defaultWatermarkOpacity = 0.7
	defaultWatermarkAnchor  = "bottom-right"
	defaultOutputSuffix     = "_vertical"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultHistoryKeep      = 500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Defaults: Defaults{
			Quality:          defaultQuality,
			Zoom:             defaultZoom,
			WatermarkSize:    defaultWatermarkSize,
			WatermarkOpacity: defaultWatermarkOpacity,
			WatermarkAnchor:  defaultWatermarkAnchor,
		},
		Output: Output{
			Suffix:            defaultOutputSuffix,
			OverwriteExisting: false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
			Keep:    defaultHistoryKeep,
		},
	}
}
