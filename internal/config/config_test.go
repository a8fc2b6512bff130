package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3000",
	"log_level": "debug",
	"rag_server_url": "http://json-rag.example.com",
	"trusted_subnet": "10.0.0.0/8",
	"indexing_enabled": true
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8001", cfg.RAGServerURL)
	assert.Equal(t, "username", cfg.AuthCookieName)
	assert.Equal(t, 60*time.Second, cfg.AnswerTimeout)
	assert.Equal(t, 10*time.Second, cfg.IndexTimeout)
	assert.Equal(t, 1024, cfg.IndexChunkSize)
	assert.False(t, cfg.IndexingEnabled)
	assert.Empty(t, cfg.TrustedSubnet)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://json-rag.example.com", cfg.RAGServerURL)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.True(t, cfg.IndexingEnabled)
	assert.Equal(t, 60*time.Second, cfg.AnswerTimeout, "fields absent from the file keep their defaults")
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("RAG_SERVER_URL", "http://env-rag.example.com")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, "http://env-rag.example.com", cfg.RAGServerURL)
	assert.Equal(t, "debug", cfg.LogLevel) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("RAG_SERVER_URL", "http://env-rag.example.com")

	os.Args = []string{
		"testbin",
		"-a", ":6000",
		"-r", "http://cli-rag.example.com",
	}

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "http://cli-rag.example.com", cfg.RAGServerURL)
	assert.Equal(t, "debug", cfg.LogLevel) // from JSON
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANSWER_TIMEOUT", "90s")
	t.Setenv("INDEX_CHUNK_SIZE", "512")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.AnswerTimeout)
	assert.Equal(t, 512, cfg.IndexChunkSize)
}

func TestConfigRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigRejectsMalformedTrustedSubnet(t *testing.T) {
	t.Setenv("TRUSTED_SUBNET", "not-a-cidr")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
