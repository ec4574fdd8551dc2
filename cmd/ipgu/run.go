package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrishioa/ipgu/internal/auth"
	"github.com/hrishioa/ipgu/internal/config"
	"github.com/hrishioa/ipgu/internal/files"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/pipeline"
)

type runOptions struct {
	configFile  string
	logFilePath string
	debug       bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Run the full pipeline: segment, transcribe, translate, merge, emit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a config file (default: ./ipgu.yaml if present)")
	flags.StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	flags.String("srt", "", "Reference subtitle file")
	flags.String("output-dir", "", "Directory for the final subtitle file")
	flags.String("intermediate-dir", "", "Directory for per-segment artifacts")
	flags.StringSlice("source-languages", nil, "Spoken languages in the video")
	flags.String("target-language", "", "Target language name (e.g. Korean)")
	flags.String("transcription-model", "", "Multimodal model for transcription")
	flags.String("translation-model", "", "Text model for translation")
	flags.Int("chunk-duration", 0, "Chunk duration in seconds")
	flags.Int("chunk-overlap", 0, "Chunk overlap in seconds")
	flags.String("chunk-format", "", "Slice format: audio or video")
	flags.Int("max-concurrent", 0, "Concurrent workers per stage")
	flags.Int("retries", -1, "Translation retry budget")
	flags.Int("transcription-retries", -1, "Transcription validation retry budget")
	flags.Bool("force", false, "Redo work even when artifacts exist")
	flags.Int("only-part", 0, "Process a single segment part")
	flags.Bool("no-timing-validation", false, "Disable the timing consistency check")
	flags.Bool("use-response-timings", false, "Prefer timings parsed from the LLM response")
	flags.Bool("mark-fallbacks", true, "Prefix english lines taken from the reference")
	flags.String("color-english", "", "Hex color for english lines")
	flags.String("color-target", "", "Hex color for target-language lines")
	flags.Float64("output-offset", 0, "Signed offset in seconds applied on output")
	flags.Float64("input-offset", 0, "Signed offset in seconds applied to the reference on read")

	return cmd
}

// flagBindings maps config keys to run command flags.
var flagBindings = map[string]string{
	"srtPath":                 "srt",
	"outputDir":               "output-dir",
	"intermediateDir":         "intermediate-dir",
	"sourceLanguages":         "source-languages",
	"targetLanguage":          "target-language",
	"transcriptionModel":      "transcription-model",
	"translationModel":        "translation-model",
	"chunkDuration":           "chunk-duration",
	"chunkOverlap":            "chunk-overlap",
	"chunkFormat":             "chunk-format",
	"maxConcurrent":           "max-concurrent",
	"retries":                 "retries",
	"transcriptionRetries":    "transcription-retries",
	"force":                   "force",
	"processOnlyPart":         "only-part",
	"disableTimingValidation": "no-timing-validation",
	"useResponseTimings":      "use-response-timings",
	"markFallbacks":           "mark-fallbacks",
	"colorEnglish":            "color-english",
	"colorTarget":             "color-target",
	"outputOffsetSeconds":     "output-offset",
	"inputOffsetSeconds":      "input-offset",
}

func runPipeline(cmd *cobra.Command, args []string, opts *runOptions) error {
	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		cfg.VideoPath = args[0]
	}
	if cfg.VideoPath == "" {
		_ = cmd.Usage()
		return fmt.Errorf("a video path is required")
	}

	resolveAPIKeys(&cfg)

	ctx, stop := signalContext()
	defer stop()

	result, err := pipeline.Run(ctx, cfg)
	if result.RunID != "" {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprint(cmd.OutOrStdout(), result.Render())
	}
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Pipeline canceled", "error", err)
		}
		return err
	}
	return nil
}

func loadConfig(cmd *cobra.Command, opts *runOptions) (config.Config, error) {
	cfg, v, err := config.Load(opts.configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	for key, flagName := range flagBindings {
		if f := flags.Lookup(flagName); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, err
			}
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// resolveAPIKeys backfills missing keys from the keychain or environment.
func resolveAPIKeys(cfg *config.Config) {
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
	for _, service := range auth.Services() {
		if cfg.APIKeys[service] != "" {
			continue
		}
		if key, source := auth.GetKey(service); key != "" {
			cfg.APIKeys[service] = key
			logger.Info("Using API key", "service", service, "source", source)
		}
	}
}
