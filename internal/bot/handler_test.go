package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	chatID := int64(42)

	// Первые запросы в пределах лимита разрешены
	for i := 0; i < MaxRequestsPerMinute; i++ {
		assert.True(t, rl.IsAllowed(chatID), "запрос %d должен быть разрешен", i)
	}

	// Следующий запрос блокируется
	assert.False(t, rl.IsAllowed(chatID))

	// Лимит действует на каждый чат отдельно
	assert.True(t, rl.IsAllowed(int64(99)))
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	rl := NewRateLimiter()
	chatID := int64(42)

	// Заполняем лимит устаревшими запросами
	old := time.Now().Add(-2 * RateLimitWindow)
	for i := 0; i < MaxRequestsPerMinute; i++ {
		rl.requests[chatID] = append(rl.requests[chatID], old)
	}

	// Старые запросы вне окна не учитываются
	assert.True(t, rl.IsAllowed(chatID))
}

func TestSynthesisErrorReply(t *testing.T) {
	tests := []struct {
		kind     string
		contains string
	}{
		{kind: "empty_text", contains: "текст пуст"},
		{kind: "timeout", contains: "слишком долго"},
		{kind: "network", contains: "недоступен"},
		{kind: "remote_rejected", contains: "недоступен"},
		{kind: "empty_audio", contains: "недоступен"},
		{kind: "unknown", contains: "еще раз"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Contains(t, synthesisErrorReply(tt.kind), tt.contains)
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "короткий текст", SanitizeForLog("короткий текст"))
	assert.Equal(t, "строка один строка два", SanitizeForLog("строка один\nстрока два"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	sanitized := SanitizeForLog(string(long))
	assert.Len(t, sanitized, 83)
	assert.True(t, len(sanitized) < 100)
}
