package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("LLM_URL")
	os.Unsetenv("LLM_TIMEOUT")
	os.Unsetenv("REDIS_DB")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "medinfo", cfg.DBName)
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", cfg.LLMURL)
	assert.Equal(t, 3*time.Minute, cfg.LLMTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("DB_NAME", "medinfo_test")
	t.Setenv("LLM_URL", "http://llm.internal:1234/v1/chat/completions")
	t.Setenv("LLM_TIMEOUT", "90s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.Equal(t, "medinfo_test", cfg.DBName)
	assert.Equal(t, "http://llm.internal:1234/v1/chat/completions", cfg.LLMURL)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "not-a-duration")

	_, err := LoadConfig()
	assert.Error(t, err)
}
