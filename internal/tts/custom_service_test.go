package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWAV имитирует бинарное тело ответа сервиса
var fakeWAV = []byte("RIFF....WAVEfmt fake audio payload")

func newTestService(t *testing.T, baseURL string, timeout time.Duration) *CustomService {
	t.Helper()

	return NewCustomService(zap.NewNop(), Config{
		APIBase: baseURL,
		Timeout: timeout,
		Role:    "рассказчик",
		Emotion: "спокойный",
		Speed:   1.2,
		TempDir: t.TempDir(),
	})
}

func TestNewCustomService_Defaults(t *testing.T) {
	s := NewCustomService(zap.NewNop(), Config{})

	assert.Equal(t, defaultAPIBase, s.apiBase)
	assert.Equal(t, defaultRole, s.role)
	assert.Equal(t, defaultEmotion, s.emotion)
	assert.Equal(t, defaultSpeed, s.speed)
	assert.Equal(t, defaultModel, s.model)
	assert.Equal(t, defaultTimeout, s.timeout)
	assert.Equal(t, "custom", s.GetName())

	// Без API ключа заголовок Authorization не добавляется
	assert.Equal(t, "application/json", s.headers["Content-Type"])
	assert.Equal(t, customUserAgent, s.headers["User-Agent"])
	assert.NotContains(t, s.headers, "Authorization")
}

func TestNewCustomService_APIKey(t *testing.T) {
	s := NewCustomService(zap.NewNop(), Config{APIKey: "secret-key"})

	assert.Equal(t, "Bearer secret-key", s.headers["Authorization"])
}

func TestNewCustomService_TrailingSlash(t *testing.T) {
	s := NewCustomService(zap.NewNop(), Config{APIBase: "http://x/"})

	assert.Equal(t, "http://x", s.apiBase)
}

func TestNewCustomService_SpeedClamped(t *testing.T) {
	s := NewCustomService(zap.NewNop(), Config{Speed: 10.0})
	assert.Equal(t, maxSpeed, s.speed)

	s = NewCustomService(zap.NewNop(), Config{Speed: 0.01})
	assert.Equal(t, minSpeed, s.speed)
}

func TestSynthesizeToFile_Success(t *testing.T) {
	var gotReq synthesisRequest
	var gotAuth, gotUserAgent, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(fakeWAV)
	}))
	defer server.Close()

	tempDir := t.TempDir()
	// База с завершающим слешем: endpoint не должен содержать "//"
	s := NewCustomService(zap.NewNop(), Config{
		APIBase: server.URL + "/",
		APIKey:  "token123",
		Role:    "рассказчик",
		Emotion: "спокойный",
		Speed:   1.2,
		TempDir: tempDir,
	})

	path, err := s.SynthesizeToFile(context.Background(), "Привет, мир!")
	require.NoError(t, err)

	// Путь указывает на непустой WAV файл во временной директории
	assert.True(t, strings.HasSuffix(path, ".wav"))
	assert.Equal(t, tempDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "custom_tts_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fakeWAV, data)

	// Проверяем контракт запроса
	assert.Equal(t, "/get_role_music", gotPath)
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.Equal(t, customUserAgent, gotUserAgent)
	assert.Equal(t, "рассказчик", gotReq.Role)
	assert.Equal(t, "спокойный", gotReq.Emotion)
	assert.Equal(t, "Привет, мир!", gotReq.Content)
	assert.Equal(t, 1.2, gotReq.Speed)
}

func TestSynthesizeToFile_EmptyText(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(fakeWAV)
	}))
	defer server.Close()

	s := newTestService(t, server.URL, 0)

	for _, text := range []string{"", "   ", " \t\n "} {
		_, err := s.SynthesizeToFile(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}

	// Запросы к сервису не выполнялись
	assert.Equal(t, int64(0), requests.Load())
}

func TestSynthesizeToFile_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestService(t, server.URL, 0)

	path, err := s.SynthesizeToFile(context.Background(), "текст")
	assert.ErrorIs(t, err, ErrEmptyAudio)
	assert.Empty(t, path)
}

func TestSynthesizeToFile_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: "role not found"},
		{name: "internal error", status: http.StatusInternalServerError, body: "synthesis backend down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := newTestService(t, server.URL, 0)

			_, err := s.SynthesizeToFile(context.Background(), "текст")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body)
		})
	}
}

func TestSynthesizeToFile_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write(fakeWAV)
	}))
	defer server.Close()

	s := newTestService(t, server.URL, 200*time.Millisecond)

	start := time.Now()
	_, err := s.SynthesizeToFile(context.Background(), "текст")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// Ошибка возвращается примерно через таймаут, а не после ответа сервера
	assert.Less(t, elapsed, time.Second)
}

func TestSynthesizeToFile_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close() // соединение будет отклонено

	s := newTestService(t, baseURL, 0)

	_, err := s.SynthesizeToFile(context.Background(), "текст")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestSynthesizeToFile_ConcurrentCallsUniquePaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fakeWAV)
	}))
	defer server.Close()

	s := newTestService(t, server.URL, 0)

	const calls = 2
	paths := make([]string, calls)
	errs := make([]error, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = s.SynthesizeToFile(context.Background(), "одинаковый текст")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, paths[0], paths[1])
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		reachable bool
	}{
		{name: "ok", status: http.StatusOK, reachable: true},
		{name: "bad request", status: http.StatusBadRequest, reachable: true},
		{name: "unprocessable entity", status: http.StatusUnprocessableEntity, reachable: true},
		{name: "internal error", status: http.StatusInternalServerError, reachable: false},
		{name: "not found", status: http.StatusNotFound, reachable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq synthesisRequest

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			s := newTestService(t, server.URL, 0)

			assert.Equal(t, tt.reachable, s.TestConnection(context.Background()))

			// Тестовый запрос фиксированный: короткий текст и скорость 1.0
			assert.Equal(t, probeContent, gotReq.Content)
			assert.Equal(t, 1.0, gotReq.Speed)
		})
	}
}

func TestTestConnection_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	s := newTestService(t, baseURL, 0)

	// Сетевые ошибки не пробрасываются наружу
	assert.False(t, s.TestConnection(context.Background()))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "empty_text", ErrorKind(ErrEmptyText))
	assert.Equal(t, "empty_audio", ErrorKind(ErrEmptyAudio))
	assert.Equal(t, "timeout", ErrorKind(ErrTimeout))
	assert.Equal(t, "network", ErrorKind(ErrNetwork))
	assert.Equal(t, "remote_rejected", ErrorKind(&APIError{StatusCode: 404, Body: "nope"}))
	assert.Equal(t, "unknown", ErrorKind(errors.New("что-то пошло не так")))
}
