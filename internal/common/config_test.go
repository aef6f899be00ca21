package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "LLM_TIMEOUT", "OLLAMA_MODEL", "FINREPORT_WORKERS", "FINREPORT_OUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.OllamaModel)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, DefaultJSONOutput, cfg.Output.JSONPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_OCRMaxTextBytes(t *testing.T) {
	t.Setenv("OCR_MAX_TEXT_BYTES", "2048")
	assert.Equal(t, int64(2048), LoadConfig(filepath.Join(t.TempDir(), "missing.env")).OCR.MaxTextBytes)

	t.Setenv("OCR_MAX_TEXT_BYTES", "lots")
	assert.Equal(t, int64(0), LoadConfig(filepath.Join(t.TempDir(), "missing.env")).OCR.MaxTextBytes)
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("FINREPORT_TEST_ONLY_WORKERS=3\nFINREPORT_TEST_ONLY_MODEL=from-file\n"), 0o644))
	t.Setenv("FINREPORT_TEST_ONLY_MODEL", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("FINREPORT_TEST_ONLY_WORKERS") })

	_ = LoadConfig(env)

	assert.Equal(t, 3, getEnvAsInt("FINREPORT_TEST_ONLY_WORKERS", 1))
	assert.Equal(t, "from-env", getEnv("FINREPORT_TEST_ONLY_MODEL", ""))
}

func TestLoadConfig_ParsesTypes(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_CACHE", "true")
	t.Setenv("FINREPORT_WORKERS", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1, cfg.Batch.Workers)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLM:    LLMConfig{Provider: ProviderOllama},
			Batch:  BatchConfig{Workers: 1},
			Output: OutputConfig{JSONPath: "out.json"},
			Log:    LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "claude" }, "LLM_PROVIDER"},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, "FINREPORT_WORKERS"},
		{"openai without key", func(c *Config) { c.LLM.Provider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"vertex without project", func(c *Config) { c.LLM.Provider = ProviderVertex; c.LLM.VertexLocation = "x" }, "VERTEX_PROJECT"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL"},
		{"empty output", func(c *Config) { c.Output.JSONPath = " " }, "FINREPORT_OUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, HasCode(err, CodeConfig))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{Log: LogConfig{Level: "DEBUG"}}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{Log: LogConfig{Level: "?"}}).SlogLevel())
}

func TestAppError(t *testing.T) {
	err := fmt.Errorf("save: %w", NewAppError(CodePersistence, "write failed", ErrPersistence))

	assert.True(t, HasCode(err, CodePersistence))
	assert.False(t, HasCode(errors.New("plain"), CodePersistence))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Nil(t, WrapError(nil, "x"))
}

func TestRunIDContext(t *testing.T) {
	ctx := WithDocumentID(WithRunID(context.Background(), "run-1"), "a.pdf")

	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Equal(t, "a.pdf", DocumentIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))
}
