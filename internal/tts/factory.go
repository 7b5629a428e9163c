package tts

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config содержит конфигурацию TTS провайдеров
type Config struct {
	Provider string // custom, piper

	// Настройки кастомного TTS API
	APIBase string
	APIKey  string
	Timeout time.Duration
	Role    string
	Emotion string
	Speed   float64
	Model   string

	// Настройки Piper TTS
	PiperURL string

	// Директория для временных WAV файлов
	TempDir string
}

// NewTTSService создает новый TTS сервис на основе конфигурации
func NewTTSService(cfg Config, logger *zap.Logger) (TTSService, error) {
	switch cfg.Provider {
	case "custom":
		return NewCustomService(logger, cfg), nil
	case "piper":
		return NewPiperService(logger, cfg.PiperURL, cfg.TempDir), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый TTS провайдер: %s. Поддерживаются: 'custom', 'piper'", cfg.Provider)
	}
}
