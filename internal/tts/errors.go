package tts

import (
	"errors"
	"fmt"
)

// Ошибки синтеза речи. Каждая ошибка SynthesizeToFile оборачивает одну из них,
// либо является *APIError, либо остается неклассифицированной.
var (
	// ErrEmptyText возвращается для пустого текста, запрос к сервису не выполняется
	ErrEmptyText = errors.New("текст для озвучки пуст")

	// ErrEmptyAudio возвращается, когда сервис ответил 200, но аудио файл пуст или отсутствует
	ErrEmptyAudio = errors.New("сгенерированный аудио файл пуст или отсутствует")

	// ErrTimeout возвращается при превышении таймаута запроса
	ErrTimeout = errors.New("превышен таймаут запроса к TTS сервису")

	// ErrNetwork возвращается при сетевой ошибке транспортного уровня
	ErrNetwork = errors.New("сетевая ошибка при обращении к TTS сервису")
)

// APIError представляет ответ TTS сервиса со статусом, отличным от 200
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TTS сервис вернул ошибку %d: %s", e.StatusCode, e.Body)
}

// ErrorKind возвращает стабильную метку класса ошибки для метрик и истории запросов
func ErrorKind(err error) string {
	var apiErr *APIError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyText):
		return "empty_text"
	case errors.Is(err, ErrEmptyAudio):
		return "empty_audio"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.As(err, &apiErr):
		return "remote_rejected"
	default:
		return "unknown"
	}
}
