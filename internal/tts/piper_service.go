package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PiperService предоставляет функциональность Text-to-Speech через Piper TTS API.
// Альтернативный провайдер с тем же контрактом: текст на входе, путь к WAV файлу на выходе.
type PiperService struct {
	logger      *zap.Logger
	baseURL     string
	tempDir     string
	client      *http.Client
	probeClient *http.Client
}

// NewPiperService создает новый Piper TTS сервис
func NewPiperService(logger *zap.Logger, baseURL, tempDir string) *PiperService {
	if tempDir == "" {
		tempDir = defaultTempDir
	}

	return &PiperService{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tempDir: tempDir,
		client: &http.Client{
			Timeout: 30 * time.Second, // Таймаут для генерации аудио
		},
		probeClient: &http.Client{
			Timeout: probeTimeout,
		},
	}
}

// GetName возвращает название провайдера
func (s *PiperService) GetName() string {
	return "piper"
}

// SynthesizeToFile преобразует текст в аудио через Piper TTS
// и сохраняет результат во временный WAV файл
func (s *PiperService) SynthesizeToFile(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		s.logger.Error("получен пустой текст для озвучки")
		return "", ErrEmptyText
	}

	audioData, err := s.generateAudio(ctx, text)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	if len(audioData) == 0 {
		s.logger.Error("Piper TTS вернул пустое аудио")
		return "", ErrEmptyAudio
	}

	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания временной директории: %w", err)
	}

	id, err := randomHex()
	if err != nil {
		return "", fmt.Errorf("ошибка генерации имени файла: %w", err)
	}
	audioPath := filepath.Join(s.tempDir, fmt.Sprintf("piper_tts_%s.wav", id))

	if err := os.WriteFile(audioPath, audioData, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи аудио файла: %w", err)
	}

	s.logger.Info("аудио успешно сгенерировано",
		zap.String("path", audioPath),
		zap.Int("audio_size", len(audioData)))

	return audioPath, nil
}

// TestConnection проверяет доступность Piper TTS коротким тестовым запросом
func (s *PiperService) TestConnection(ctx context.Context) bool {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("text", "test")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/synthesize-raw", body)
	if err != nil {
		s.logger.Warn("ошибка создания тестового запроса", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.probeClient.Do(req)
	if err != nil {
		s.logger.Warn("проверка соединения с Piper TTS не удалась", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// generateAudio отправляет запрос к Piper TTS API и получает аудио
func (s *PiperService) generateAudio(ctx context.Context, text string) ([]byte, error) {
	url := fmt.Sprintf("%s/synthesize-raw", s.baseURL)

	// Создаем multipart form data
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("text", text)
	// language определяется сервисом автоматически по тексту
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	s.logger.Debug("отправляем запрос к Piper TTS",
		zap.String("url", url),
		zap.Int("text_length", len(text)))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return audioData, nil
}
