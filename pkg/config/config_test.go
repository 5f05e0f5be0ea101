package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTypedGetters(t *testing.T) {
	p := NewStatic(map[string]string{
		"retry.max.attempts": "4",
		"browser.headless":   "true",
		"retry.delay.ms":     "1500",
		"browser.kind":       "firefox",
		"bad.int":            "not-a-number",
		"bad.bool":           "maybe",
	})

	assert.Equal(t, 4, p.GetInt("retry.max.attempts", 2))
	assert.Equal(t, 2, p.GetInt("missing", 2))
	assert.Equal(t, 7, p.GetInt("bad.int", 7))

	assert.True(t, p.GetBool("browser.headless", false))
	assert.False(t, p.GetBool("missing", false))
	assert.True(t, p.GetBool("bad.bool", true))

	assert.Equal(t, "firefox", p.GetString("browser.kind", "chromium"))
	assert.Equal(t, "chromium", p.GetString("missing", "chromium"))

	assert.Equal(t, 1500*time.Millisecond, p.GetDuration("retry.delay.ms", time.Second))
	assert.Equal(t, time.Second, p.GetDuration("missing", time.Second))
}

func TestStaticSetOverrides(t *testing.T) {
	p := NewStatic(nil)
	assert.Equal(t, 2, p.GetInt(KeyRetryMaxAttempts, 2))

	p.Set(KeyRetryMaxAttempts, "5")
	assert.Equal(t, 5, p.GetInt(KeyRetryMaxAttempts, 2))
}

func TestFileProviderLoadsFlatAndNestedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selfheal.yaml")

	content := `
wait.explicit.timeout.ms: 20000
retry:
  max.attempts: 3
  delay.ms: 250
browser:
  headless: false
  kind: chromium
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	p, err := NewFileProvider(path)
	require.NoError(t, err)

	assert.Equal(t, 20000, p.GetInt("wait.explicit.timeout.ms", 0))
	assert.Equal(t, 3, p.GetInt("retry.max.attempts", 0))
	assert.Equal(t, 250*time.Millisecond, p.GetDuration("retry.delay.ms", 0))
	assert.False(t, p.GetBool("browser.headless", true))
	assert.Equal(t, "chromium", p.GetString("browser.kind", ""))
	assert.Equal(t, path, p.Path())
}

func TestFileProviderMissingFileUsesDefaults(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2, p.GetInt(KeyRetryMaxAttempts, 2))
	assert.Equal(t, "retry", p.GetString(KeyRetryDefaultVerdict, "retry"))
}

func TestFileProviderMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0600))

	_, err := NewFileProvider(path)
	assert.Error(t, err)
}
