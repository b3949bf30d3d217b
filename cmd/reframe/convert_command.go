package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reframe/internal/applock"
	"reframe/internal/batch"
	"reframe/internal/config"
	"reframe/internal/history"
	"reframe/internal/logging"
	"reframe/internal/preset"
	"reframe/internal/services/ffmpeg"
	"reframe/internal/watermark"
)

type convertFlags struct {
	zoom             float64
	quality          string
	outputDir        string
	watermarkPath    string
	watermarkSize    int
	watermarkOpacity float64
	watermarkAnchor  string
	noWatermark      bool
	overwrite        bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <file-or-folder> [more...]",
		Short: "Convert videos to 1080x1920 vertical format",
		Long: `Convert one or more videos to 1080x1920 vertical format.
Folder arguments are expanded to the supported video files directly inside
them. Sources are processed one at a time, in order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyConvertDefaults(cmd, flags, cfg)
			return runConvert(cmd, ctx, flags, args)
		},
	}

	cmd.Flags().Float64Var(&flags.zoom, "zoom", 1.0, "Zoom factor, 1.0 to 3.0")
	cmd.Flags().StringVarP(&flags.quality, "quality", "q", string(preset.QualityHigh), "Quality preset: high, medium, or low")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for converted files (default: next to each source)")
	cmd.Flags().StringVarP(&flags.watermarkPath, "watermark", "w", "", "Watermark image path")
	cmd.Flags().IntVar(&flags.watermarkSize, "watermark-size", watermark.DefaultSizePx, "Watermark size in pixels, longest side")
	cmd.Flags().Float64Var(&flags.watermarkOpacity, "watermark-opacity", watermark.DefaultOpacity, "Watermark opacity, 0.0 to 1.0")
	cmd.Flags().StringVar(&flags.watermarkAnchor, "watermark-anchor", string(watermark.AnchorBottomRight), "Watermark corner: top-left, top-right, bottom-left, or bottom-right")
	cmd.Flags().BoolVar(&flags.noWatermark, "no-watermark", false, "Disable the watermark even when one is configured")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace outputs that already exist")

	return cmd
}

// applyConvertDefaults fills flags the user left unset from the config file.
func applyConvertDefaults(cmd *cobra.Command, flags *convertFlags, cfg *config.Config) {
	if !cmd.Flags().Changed("zoom") {
		flags.zoom = cfg.Defaults.Zoom
	}
	if !cmd.Flags().Changed("quality") {
		flags.quality = cfg.Defaults.Quality
	}
	if !cmd.Flags().Changed("output-dir") {
		flags.outputDir = cfg.Paths.OutputDir
	}
	if !cmd.Flags().Changed("watermark") {
		flags.watermarkPath = cfg.Paths.Watermark
	}
	if !cmd.Flags().Changed("watermark-size") {
		flags.watermarkSize = cfg.Defaults.WatermarkSize
	}
	if !cmd.Flags().Changed("watermark-opacity") {
		flags.watermarkOpacity = cfg.Defaults.WatermarkOpacity
	}
	if !cmd.Flags().Changed("watermark-anchor") {
		flags.watermarkAnchor = cfg.Defaults.WatermarkAnchor
	}
	if !cmd.Flags().Changed("overwrite") {
		flags.overwrite = cfg.Output.OverwriteExisting
	}
}

func runConvert(cmd *cobra.Command, cmdCtx *commandContext, flags *convertFlags, args []string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	sources, err := collectSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no supported video files found")
	}

	jobs, skipped, err := buildJobs(sources, flags, cfg)
	if err != nil {
		return err
	}
	for _, path := range skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "skipping %s: output exists (use --overwrite)\n", filepath.Base(path))
	}
	if len(jobs) == 0 {
		return errors.New("nothing to convert: all outputs exist (use --overwrite)")
	}

	lock := applock.New(cfg.Paths.StateDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release lock", logging.Error(err))
		}
	}()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := newConsoleNotifier(cmd.OutOrStdout())
	prober := batch.FFprobeProber{Binary: cfg.FFprobeBinary()}
	encoder := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	orchestrator := batch.NewOrchestrator(
		batch.NewExecutor(prober, encoder, notifier, logger),
		notifier, logger,
	)

	run := batch.NewRun(jobs)
	summary, abortErr := orchestrator.Run(runCtx, run)

	if cfg.History.Enabled {
		if store, openErr := history.Open(cfg); openErr != nil {
			logger.Warn("open history", logging.Error(openErr))
		} else {
			if recErr := store.RecordRun(context.Background(), run, summary); recErr != nil {
				logger.Warn("record history", logging.Error(recErr))
			}
			_ = store.Close()
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))

	switch {
	case abortErr != nil:
		return abortErr
	case runCtx.Err() != nil:
		return context.Canceled
	case summary.Failed > 0:
		return fmt.Errorf("%d of %d conversions failed", summary.Failed, summary.Total)
	default:
		return nil
	}
}

// collectSources expands folder arguments and validates file arguments.
func collectSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", arg, err)
		}
		if info.IsDir() {
			expanded, err := batch.ExpandFolder(arg)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", arg, err)
			}
			sources = append(sources, expanded...)
			continue
		}
		if !batch.SupportedSource(arg) {
			return nil, fmt.Errorf("source %s: unsupported format (want %s)",
				arg, strings.Join(batch.SupportedExtensions, ", "))
		}
		sources = append(sources, arg)
	}
	return sources, nil
}

func buildJobs(sources []string, flags *convertFlags, cfg *config.Config) ([]*batch.Job, []string, error) {
	var wm *batch.WatermarkConfig
	if !flags.noWatermark && strings.TrimSpace(flags.watermarkPath) != "" {
		anchor, ok := watermark.ParseAnchor(flags.watermarkAnchor)
		if !ok {
			return nil, nil, fmt.Errorf("unknown watermark anchor %q", flags.watermarkAnchor)
		}
		wm = &batch.WatermarkConfig{
			AssetPath: flags.watermarkPath,
			SizePx:    flags.watermarkSize,
			Opacity:   flags.watermarkOpacity,
			Anchor:    anchor,
		}
	}

	quality, ok := preset.ParseQuality(flags.quality)
	if !ok {
		return nil, nil, fmt.Errorf("unknown quality %q (want high, medium, or low)", flags.quality)
	}

	var jobs []*batch.Job
	var skipped []string
	for _, source := range sources {
		output := batch.OutputPath(source, flags.outputDir, cfg.Output.Suffix)
		if !flags.overwrite {
			if _, err := os.Stat(output); err == nil {
				skipped = append(skipped, source)
				continue
			}
		}
		job, err := batch.NewJob(batch.Params{
			SourcePath: source,
			OutputPath: output,
			Zoom:       flags.zoom,
			Quality:    quality,
			Watermark:  wm,
		})
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, skipped, nil
}
