package tts

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Значения по умолчанию повторяют контракт удаленного TTS сервиса:
// роли и эмоции определяются самим сервисом, поэтому строки не переводятся.
const (
	defaultAPIBase = "http://127.0.0.1:50042"
	defaultRole    = "缪尔赛斯"
	defaultEmotion = "平常"
	defaultSpeed   = 1.0
	defaultModel   = "custom_tts"
	defaultTimeout = 30 * time.Second
	defaultTempDir = "data/temp"

	customEndpoint  = "/get_role_music"
	customUserAgent = "GolosAI-CustomTTS/1.0"

	minSpeed = 0.1
	maxSpeed = 3.0

	// Проверка соединения использует собственный короткий таймаут,
	// независимый от таймаута синтеза
	probeContent = "测试"
	probeTimeout = 10 * time.Second
)

// synthesisRequest представляет тело запроса на синтез речи
type synthesisRequest struct {
	Role    string  `json:"role"`
	Emotion string  `json:"emotion"`
	Content string  `json:"content"`
	Speed   float64 `json:"speed"`
}

// CustomService предоставляет функциональность Text-to-Speech через кастомный HTTP API.
// Сервис принимает JSON с ролью, эмоцией и текстом, а возвращает WAV аудио.
type CustomService struct {
	logger      *zap.Logger
	apiBase     string
	headers     map[string]string
	role        string
	emotion     string
	speed       float64
	model       string
	tempDir     string
	timeout     time.Duration
	httpClient  *http.Client
	probeClient *http.Client
}

// NewCustomService создает новый кастомный TTS сервис.
// Отсутствующие поля конфигурации заменяются значениями по умолчанию,
// конструктор не возвращает ошибок.
func NewCustomService(logger *zap.Logger, cfg Config) *CustomService {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	// Убираем ровно один завершающий слеш, чтобы не получить "//" в endpoint
	apiBase = strings.TrimSuffix(apiBase, "/")

	role := cfg.Role
	if role == "" {
		role = defaultRole
	}

	emotion := cfg.Emotion
	if emotion == "" {
		emotion = defaultEmotion
	}

	speed := cfg.Speed
	if speed == 0 {
		speed = defaultSpeed
	}
	if speed < minSpeed || speed > maxSpeed {
		clamped := speed
		if clamped < minSpeed {
			clamped = minSpeed
		}
		if clamped > maxSpeed {
			clamped = maxSpeed
		}
		logger.Warn("скорость речи вне допустимого диапазона, значение ограничено",
			zap.Float64("configured", speed),
			zap.Float64("clamped", clamped))
		speed = clamped
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = defaultTempDir
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// Заголовки собираются один раз и не меняются за время жизни сервиса
	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   customUserAgent,
	}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	return &CustomService{
		logger:  logger,
		apiBase: apiBase,
		headers: headers,
		role:    role,
		emotion: emotion,
		speed:   speed,
		model:   model,
		tempDir: tempDir,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		probeClient: &http.Client{
			Timeout: probeTimeout,
		},
	}
}

// GetName возвращает название провайдера
func (s *CustomService) GetName() string {
	return "custom"
}

// SynthesizeToFile преобразует текст в аудио и возвращает путь к WAV файлу.
// Выполняется ровно один POST запрос к сервису, без повторов.
func (s *CustomService) SynthesizeToFile(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		s.logger.Error("получен пустой текст для озвучки")
		return "", ErrEmptyText
	}

	// Создаем временную директорию, если её еще нет
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		s.logger.Error("ошибка создания временной директории",
			zap.String("dir", s.tempDir),
			zap.Error(err))
		return "", fmt.Errorf("ошибка создания временной директории: %w", err)
	}

	// Случайный 128-битный идентификатор гарантирует уникальность имени файла
	// при параллельных вызовах
	id, err := randomHex()
	if err != nil {
		return "", fmt.Errorf("ошибка генерации имени файла: %w", err)
	}
	audioPath := filepath.Join(s.tempDir, fmt.Sprintf("custom_tts_%s.wav", id))

	payload, err := json.Marshal(synthesisRequest{
		Role:    s.role,
		Emotion: s.emotion,
		Content: text,
		Speed:   s.speed,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	endpoint := s.apiBase + customEndpoint

	s.logger.Debug("вызываем TTS интерфейс",
		zap.String("endpoint", endpoint),
		zap.String("role", s.role),
		zap.String("emotion", s.emotion),
		zap.Float64("speed", s.speed),
		zap.Int("text_length", len(text)))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", s.classifyTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Тело ответа с ошибкой читаем как текст для диагностики
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		s.logger.Error("запрос к TTS API завершился ошибкой",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", apiErr.Body))
		return "", apiErr
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", s.classifyTransportError(endpoint, err)
	}

	if err := os.WriteFile(audioPath, audioData, 0644); err != nil {
		s.logger.Error("ошибка записи аудио файла",
			zap.String("path", audioPath),
			zap.Error(err))
		return "", fmt.Errorf("ошибка записи аудио файла: %w", err)
	}

	// Сервис мог ответить 200 с пустым телом — такой файл непригоден
	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		s.logger.Error("сгенерированный аудио файл пуст или отсутствует",
			zap.String("path", audioPath),
			zap.String("endpoint", endpoint))
		return "", ErrEmptyAudio
	}

	s.logger.Info("аудио успешно сгенерировано",
		zap.String("path", audioPath),
		zap.Int("audio_size", len(audioData)))

	return audioPath, nil
}

// TestConnection проверяет доступность TTS сервиса коротким тестовым запросом.
// Статусы 400 и 422 означают, что сервис отверг тестовые параметры,
// но сам при этом доступен.
func (s *CustomService) TestConnection(ctx context.Context) bool {
	payload, err := json.Marshal(synthesisRequest{
		Role:    s.role,
		Emotion: s.emotion,
		Content: probeContent,
		Speed:   1.0,
	})
	if err != nil {
		s.logger.Warn("ошибка сериализации тестового запроса", zap.Error(err))
		return false
	}

	endpoint := s.apiBase + customEndpoint

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("ошибка создания тестового запроса", zap.Error(err))
		return false
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.probeClient.Do(req)
	if err != nil {
		s.logger.Warn("проверка соединения с TTS сервисом не удалась",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusUnprocessableEntity:
		return true
	default:
		s.logger.Warn("TTS сервис недоступен",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return false
	}
}

// classifyTransportError сопоставляет ошибку транспортного уровня
// с таймаутом или сетевой ошибкой и логирует её
func (s *CustomService) classifyTransportError(endpoint string, err error) error {
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Error("превышен таймаут запроса к TTS сервису",
			zap.String("endpoint", endpoint),
			zap.Duration("timeout", s.timeout))
		return fmt.Errorf("%w (таймаут %s)", ErrTimeout, s.timeout)

	case errors.Is(err, context.Canceled):
		s.logger.Warn("запрос к TTS сервису отменен",
			zap.String("endpoint", endpoint))
		return fmt.Errorf("запрос к TTS сервису отменен: %w", err)

	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			s.logger.Error("превышен таймаут запроса к TTS сервису",
				zap.String("endpoint", endpoint),
				zap.Duration("timeout", s.timeout))
			return fmt.Errorf("%w (таймаут %s)", ErrTimeout, s.timeout)
		}
		s.logger.Error("сетевая ошибка при обращении к TTS сервису",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNetwork, err)

	default:
		s.logger.Error("неизвестная ошибка запроса к TTS сервису",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return fmt.Errorf("неизвестная ошибка запроса к TTS сервису: %w", err)
	}
}

// randomHex возвращает 128-битный случайный идентификатор в hex представлении
func randomHex() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
