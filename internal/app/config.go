package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	Provider         string
	OAIApiKey        string
	OAIBaseUrl       string
	GeminiApiKey     string
	GeminiBaseUrl    string
	Classify         Profile
	Critique         Profile
	CatalogPath      string
	ImageDir         string
	MaxUploadBytes   int64
	RateLimit        float64
	RateBurst        int
	InferenceTimeout time.Duration
}

func env(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Error(fmt.Sprintf("%s is not an integer, using %d", key, fallback))
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Error(fmt.Sprintf("%s is not a number, using %g", key, fallback))
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Error(fmt.Sprintf("%s is not a duration, using %s", key, fallback))
		return fallback
	}
	return d
}

// defaultModels are the classify and critique models used when
// CLASSIFY_MODEL and CRITIQUE_MODEL are unset.
var defaultModels = map[string][2]string{
	"openai": {"gpt-4o-mini", "gpt-4o"},
	"gemini": {"gemini-2.0-flash-lite", "gemini-2.5-flash"},
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	provider := env("INFERENCE_PROVIDER", "openai")
	models, ok := defaultModels[provider]
	if !ok {
		models = defaultModels["openai"]
	}

	config := Config{
		Port:          env("GOPORT", "8000"),
		Provider:      provider,
		OAIApiKey:     env("OPENAI_API_KEY", os.Getenv("OAI_API_KEY")),
		OAIBaseUrl:    env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiApiKey:  env("GEMINI_API_KEY", ""),
		GeminiBaseUrl: env("GEMINI_BASE_URL", ""),
		Classify: Profile{
			Name:      "classify",
			Model:     env("CLASSIFY_MODEL", models[0]),
			MaxTokens: envInt("CLASSIFY_MAX_TOKENS", 50),
		},
		Critique: Profile{
			Name:      "critique",
			Model:     env("CRITIQUE_MODEL", models[1]),
			MaxTokens: envInt("CRITIQUE_MAX_TOKENS", 1000),
		},
		CatalogPath:      env("CHART_PROMPTS_FILE", ""),
		ImageDir:         env("IMAGE_UPLOAD_PATH", "static/images"),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_BYTES", 10<<20)),
		RateLimit:        envFloat("RATE_LIMIT_RPS", 0),
		RateBurst:        envInt("RATE_LIMIT_BURST", 1),
		InferenceTimeout: envDuration("INFERENCE_TIMEOUT", 2*time.Minute),
	}

	switch config.Provider {
	case "openai":
		if config.OAIApiKey == "" {
			slog.Error("OPENAI_API_KEY environment variable not set")
		}
	case "gemini":
		if config.GeminiApiKey == "" {
			slog.Error("GEMINI_API_KEY environment variable not set")
		}
	default:
		slog.Error(fmt.Sprintf("unknown INFERENCE_PROVIDER %q", config.Provider))
	}

	return config
}
