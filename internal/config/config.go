package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hrishioa/ipgu/internal/media"
)

// Bounds applied by Normalize.
const (
	MinConcurrency = 1
	MaxConcurrency = 20
	MinChunkSec    = 60
)

// Config holds every knob of a pipeline run.
type Config struct {
	VideoPath       string `mapstructure:"videoPath"`
	SRTPath         string `mapstructure:"srtPath"`
	OutputDir       string `mapstructure:"outputDir"`
	IntermediateDir string `mapstructure:"intermediateDir"`

	SourceLanguages []string `mapstructure:"sourceLanguages"`
	TargetLanguage  string   `mapstructure:"targetLanguage"`

	TranscriptionModel string `mapstructure:"transcriptionModel"`
	TranslationModel   string `mapstructure:"translationModel"`

	ChunkDuration int    `mapstructure:"chunkDuration"` // seconds
	ChunkOverlap  int    `mapstructure:"chunkOverlap"`  // seconds
	ChunkFormat   string `mapstructure:"chunkFormat"`   // audio | video

	MaxConcurrent        int  `mapstructure:"maxConcurrent"`
	Retries              int  `mapstructure:"retries"`
	TranscriptionRetries int  `mapstructure:"transcriptionRetries"`
	Force                bool `mapstructure:"force"`

	APIKeys map[string]string `mapstructure:"apiKeys"`

	ProcessOnlyPart int `mapstructure:"processOnlyPart"`

	DisableTimingValidation bool `mapstructure:"disableTimingValidation"`
	UseResponseTimings      bool `mapstructure:"useResponseTimings"`
	MarkFallbacks           bool `mapstructure:"markFallbacks"`

	ColorEnglish string `mapstructure:"colorEnglish"`
	ColorTarget  string `mapstructure:"colorTarget"`

	OutputOffsetSeconds float64 `mapstructure:"outputOffsetSeconds"`
	InputOffsetSeconds  float64 `mapstructure:"inputOffsetSeconds"`
}

// Load builds a Config from an optional config file, IPGU_* environment
// variables, and defaults, in ascending precedence of env over file.
func Load(configFile string) (Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("IPGU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("ipgu")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("outputDir", ".")
	v.SetDefault("intermediateDir", "intermediate_files")
	v.SetDefault("targetLanguage", "Korean")
	v.SetDefault("transcriptionModel", "gemini-2.5-pro")
	v.SetDefault("translationModel", "gemini-2.5-pro")
	v.SetDefault("chunkDuration", 1200)
	v.SetDefault("chunkOverlap", 300)
	v.SetDefault("chunkFormat", string(media.FormatAudio))
	v.SetDefault("maxConcurrent", 3)
	v.SetDefault("retries", 2)
	v.SetDefault("transcriptionRetries", 2)
	v.SetDefault("useResponseTimings", false)
	v.SetDefault("markFallbacks", true)
	v.SetDefault("colorEnglish", "#FFFFFF")
	v.SetDefault("colorTarget", "#FFD700")
}

// Normalize applies safe bounds and returns notes describing adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if c.MaxConcurrent < MinConcurrency {
		notes = append(notes, fmt.Sprintf("maxConcurrent raised from %d to %d", c.MaxConcurrent, MinConcurrency))
		c.MaxConcurrent = MinConcurrency
	}
	if c.MaxConcurrent > MaxConcurrency {
		notes = append(notes, fmt.Sprintf("maxConcurrent clamped from %d to %d", c.MaxConcurrent, MaxConcurrency))
		c.MaxConcurrent = MaxConcurrency
	}
	if c.ChunkDuration < MinChunkSec {
		notes = append(notes, fmt.Sprintf("chunkDuration raised from %ds to %ds", c.ChunkDuration, MinChunkSec))
		c.ChunkDuration = MinChunkSec
	}
	if c.ChunkOverlap < 0 {
		notes = append(notes, "chunkOverlap raised to 0")
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkDuration {
		clamped := c.ChunkDuration / 4
		notes = append(notes, fmt.Sprintf("chunkOverlap clamped from %ds to %ds (must be below chunkDuration)", c.ChunkOverlap, clamped))
		c.ChunkOverlap = clamped
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.TranscriptionRetries < 0 {
		c.TranscriptionRetries = 0
	}
	return c, notes
}

// Validate checks the configuration is runnable.
func (c Config) Validate() error {
	if c.VideoPath == "" {
		return fmt.Errorf("videoPath is required")
	}
	if c.TargetLanguage == "" {
		return fmt.Errorf("targetLanguage is required")
	}
	if c.TranscriptionModel == "" || c.TranslationModel == "" {
		return fmt.Errorf("transcriptionModel and translationModel are required")
	}
	if !media.Format(c.ChunkFormat).Valid() {
		return fmt.Errorf("chunkFormat must be %q or %q, got %q", media.FormatAudio, media.FormatVideo, c.ChunkFormat)
	}
	if c.SRTPath == "" && !c.UseResponseTimings {
		return fmt.Errorf("srtPath is required unless useResponseTimings is enabled")
	}
	if key := c.APIKeys["gemini"]; key == "" {
		if strings.Contains(strings.ToLower(c.TranscriptionModel), "gemini") ||
			strings.Contains(strings.ToLower(c.TranslationModel), "gemini") {
			return fmt.Errorf("a Gemini API key is required for model %q", c.TranscriptionModel)
		}
	}
	return nil
}

// TargetLangKey returns the lowercase language key used in translation maps
// and tag names.
func (c Config) TargetLangKey() string {
	return strings.ToLower(c.TargetLanguage)
}

// OutputPath is the final subtitle file location.
func (c Config) OutputPath() string {
	base := strings.TrimSuffix(filepath.Base(c.VideoPath), filepath.Ext(c.VideoPath))
	name := fmt.Sprintf("%s.bilingual.%s.srt", base, c.TargetLangKey())
	return filepath.Join(c.OutputDir, name)
}

// Chunk geometry as durations.
func (c Config) ChunkDur() time.Duration   { return time.Duration(c.ChunkDuration) * time.Second }
func (c Config) OverlapDur() time.Duration { return time.Duration(c.ChunkOverlap) * time.Second }

func (c Config) InputOffset() time.Duration {
	return time.Duration(c.InputOffsetSeconds * float64(time.Second))
}

func (c Config) OutputOffset() time.Duration {
	return time.Duration(c.OutputOffsetSeconds * float64(time.Second))
}
