package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr string `toml:"server_addr"`
	StorageDir string `toml:"storage_dir"`
	LogLevel   string `toml:"log_level"`

	YtdlpPath  string `toml:"ytdlp_path"`
	FfmpegPath string `toml:"ffmpeg_path"`

	TranscribeURL    string `toml:"transcribe_url"`
	TranscribeAPIKey string `toml:"transcribe_api_key"`

	// copy stream-copies the single source container; mux also merges a
	// matching separate audio file when one exists.
	ClipStrategy string `toml:"clip_strategy"`

	// Timeouts in minutes; zero disables the deadline.
	DownloadTimeoutMin   int `toml:"download_timeout_minutes"`
	ClipTimeoutMin       int `toml:"clip_timeout_minutes"`
	TranscribeTimeoutMin int `toml:"transcribe_timeout_minutes"`
}

func defaults() Config {
	return Config{
		ServerAddr:           ":8080",
		StorageDir:           "./downloads",
		LogLevel:             "info",
		YtdlpPath:            "yt-dlp",
		FfmpegPath:           "ffmpeg",
		ClipStrategy:         "copy",
		DownloadTimeoutMin:   60,
		ClipTimeoutMin:       10,
		TranscribeTimeoutMin: 10,
	}
}

// Load builds the runtime config from defaults, an optional TOML file
// (CLIPPER_CONFIG, falling back to ./clipper.toml), and environment
// variable overrides, in that order.
func Load() (Config, error) {
	cfg := defaults()

	path := getEnv("CLIPPER_CONFIG", "./clipper.toml")
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.StorageDir = getEnv("STORAGE_DIR", cfg.StorageDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.YtdlpPath = getEnv("YTDLP_PATH", cfg.YtdlpPath)
	cfg.FfmpegPath = getEnv("FFMPEG_PATH", cfg.FfmpegPath)
	cfg.TranscribeURL = getEnv("TRANSCRIBE_URL", cfg.TranscribeURL)
	cfg.TranscribeAPIKey = getEnv("OPENAI_API_KEY", cfg.TranscribeAPIKey)
	cfg.ClipStrategy = strings.ToLower(getEnv("CLIP_STRATEGY", cfg.ClipStrategy))
	cfg.DownloadTimeoutMin = getEnvInt("DOWNLOAD_TIMEOUT_MINUTES", cfg.DownloadTimeoutMin)
	cfg.ClipTimeoutMin = getEnvInt("CLIP_TIMEOUT_MINUTES", cfg.ClipTimeoutMin)
	cfg.TranscribeTimeoutMin = getEnvInt("TRANSCRIBE_TIMEOUT_MINUTES", cfg.TranscribeTimeoutMin)

	if cfg.ClipStrategy != "copy" && cfg.ClipStrategy != "mux" {
		return Config{}, fmt.Errorf("invalid clip_strategy %q (expected copy or mux)", cfg.ClipStrategy)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out < 0 {
		return fallback
	}
	return out
}
