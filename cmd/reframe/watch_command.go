package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reframe/internal/applock"
	"reframe/internal/batch"
	"reframe/internal/history"
	"reframe/internal/logging"
	"reframe/internal/services/ffmpeg"
	"reframe/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "watch <folder>",
		Short: "Watch a folder and convert videos as they arrive",
		Long: `Watch a folder and convert each new video file once it has finished
being written. Conversion settings mirror the convert command. Stop with
Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyConvertDefaults(cmd, flags, cfg)
			return runWatch(cmd, ctx, flags, args[0])
		},
	}

	cmd.Flags().Float64Var(&flags.zoom, "zoom", 1.0, "Zoom factor, 1.0 to 3.0")
	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "high", "Quality preset: high, medium, or low")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for converted files (default: next to each source)")
	cmd.Flags().StringVarP(&flags.watermarkPath, "watermark", "w", "", "Watermark image path")
	cmd.Flags().IntVar(&flags.watermarkSize, "watermark-size", 150, "Watermark size in pixels, longest side")
	cmd.Flags().Float64Var(&flags.watermarkOpacity, "watermark-opacity", 0.7, "Watermark opacity, 0.0 to 1.0")
	cmd.Flags().StringVar(&flags.watermarkAnchor, "watermark-anchor", "bottom-right", "Watermark corner")
	cmd.Flags().BoolVar(&flags.noWatermark, "no-watermark", false, "Disable the watermark even when one is configured")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace outputs that already exist")

	return cmd
}

func runWatch(cmd *cobra.Command, cmdCtx *commandContext, flags *convertFlags, dir string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch folder %s: not a directory", dir)
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

	notifier := newConsoleNotifier(cmd.OutOrStdout())
	prober := batch.FFprobeProber{Binary: cfg.FFprobeBinary()}
	encoder := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	orchestrator := batch.NewOrchestrator(
		batch.NewExecutor(prober, encoder, notifier, logger),
		notifier, logger,
	)

	convertOne := func(runCtx context.Context, source string) {
		// Skip files this process produced.
		output := batch.OutputPath(source, flags.outputDir, cfg.Output.Suffix)
		if source == output {
			return
		}
		if !flags.overwrite {
			if _, statErr := os.Stat(output); statErr == nil {
				logger.Info("output exists, skipping",
					logging.String("source", filepath.Base(source)))
				return
			}
		}
		jobs, _, buildErr := buildJobs([]string{source}, flags, cfg)
		if buildErr != nil || len(jobs) == 0 {
			if buildErr != nil {
				logger.Warn("skip file", logging.String("source", source), logging.Error(buildErr))
			}
			return
		}
		run := batch.NewRun(jobs)
		summary, runErr := orchestrator.Run(runCtx, run)
		if runErr != nil {
			logger.Error("conversion aborted", logging.Error(runErr))
		}
		if cfg.History.Enabled {
			if store, openErr := history.Open(cfg); openErr == nil {
				if recErr := store.RecordRun(context.Background(), run, summary); recErr != nil {
					logger.Warn("record history", logging.Error(recErr))
				}
				_ = store.Close()
			}
		}
	}

	w, err := watcher.New(dir, convertOne, watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for new videos. Press Ctrl-C to stop.\n", dir)
	if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
