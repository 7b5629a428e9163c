package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	Telegram TelegramConfig
	TTS      TTSConfig
	Database DatabaseConfig
	App      AppConfig
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
}

// TTSConfig содержит настройки TTS провайдеров
type TTSConfig struct {
	Provider       string  // custom, piper
	APIBase        string  // адрес кастомного TTS API
	APIKey         string  // API ключ, опционально
	TimeoutSeconds int     // таймаут запроса синтеза в секундах
	Role           string  // название роли (голоса)
	Emotion        string  // тип эмоции
	Speed          float64 // скорость речи (0.1-3.0)
	Model          string  // название модели
	PiperURL       string  // адрес Piper TTS API
	TempDir        string  // директория для временных WAV файлов
	TempMaxAge     int     // максимальный возраст временных файлов в часах
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	// TTS
	cfg.TTS.Provider = getEnvDefault("TTS_PROVIDER", "custom")
	cfg.TTS.APIBase = getEnvDefault("TTS_API_BASE", "http://127.0.0.1:50042")
	cfg.TTS.APIKey = os.Getenv("TTS_API_KEY")
	cfg.TTS.TimeoutSeconds = getEnvIntDefault("TTS_TIMEOUT", 30)
	cfg.TTS.Role = os.Getenv("TTS_ROLE")
	cfg.TTS.Emotion = os.Getenv("TTS_EMOTION")
	cfg.TTS.Speed = getEnvFloatDefault("TTS_SPEED", 1.0)
	cfg.TTS.Model = getEnvDefault("TTS_MODEL", "custom_tts")
	cfg.TTS.PiperURL = getEnvDefault("TTS_PIPER_URL", "http://piper:5000")
	cfg.TTS.TempDir = getEnvDefault("TTS_TEMP_DIR", "data/temp")
	cfg.TTS.TempMaxAge = getEnvIntDefault("TTS_TEMP_MAX_AGE_HOURS", 24)

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не установлен")
	}
	if config.TTS.Provider != "custom" && config.TTS.Provider != "piper" {
		return fmt.Errorf("поддерживаются только TTS_PROVIDER: custom, piper")
	}
	if config.TTS.TimeoutSeconds <= 0 {
		return fmt.Errorf("TTS_TIMEOUT должен быть положительным")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("DB_HOST не установлен")
	}
	if config.Database.User == "" {
		return fmt.Errorf("DB_USER не установлен")
	}
	if config.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD не установлен")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("DB_NAME не установлен")
	}

	return nil
}

// Timeout возвращает таймаут синтеза как time.Duration
func (c *TTSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TempMaxAgeDuration возвращает максимальный возраст временных файлов как time.Duration
func (c *TTSConfig) TempMaxAgeDuration() time.Duration {
	return time.Duration(c.TempMaxAge) * time.Hour
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
