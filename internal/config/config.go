package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Audio    AudioConfig
	Stt      SttConfig
	Llm      LLMConfig
	Template TemplateConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type AudioConfig struct {
	StorageDir            string
	NominalSegmentSeconds int
}

type SttConfig struct {
	OpenAIAPIKey     string
	WhisperModel     string
	Language         string
	BatchConcurrency int
	RequestTimeout   int // seconds
}

type LLMConfig struct {
	Provider       string // "openai" or "ollama"
	Model          string
	OpenAIAPIKey   string
	OllamaBaseURL  string
	RequestTimeout int // seconds
}

type TemplateConfig struct {
	Dir       string
	DefaultID string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	openAIKey := getEnv("OPENAI_API_KEY", "")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Audio: AudioConfig{
			StorageDir:            getEnv("AUDIO_STORAGE_DIR", "tmp/audio_segments"),
			NominalSegmentSeconds: getEnvAsInt("NOMINAL_SEGMENT_SECONDS", 5),
		},
		Stt: SttConfig{
			OpenAIAPIKey:     openAIKey,
			WhisperModel:     getEnv("WHISPER_MODEL", "whisper-1"),
			Language:         getEnv("STT_LANGUAGE", "ko"),
			BatchConcurrency: getEnvAsInt("STT_BATCH_CONCURRENCY", 3),
			RequestTimeout:   getEnvAsInt("STT_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Llm: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:   openAIKey,
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			RequestTimeout: getEnvAsInt("LLM_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Template: TemplateConfig{
			Dir:       getEnv("TEMPLATE_DIR", "templates"),
			DefaultID: getEnv("DEFAULT_TEMPLATE_ID", "fe_junior"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
