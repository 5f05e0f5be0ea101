package evidence

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/driver/drivertest"
	"github.com/entrhq/selfheal/pkg/logging"
)

func TestDirSinkWritesScreenshot(t *testing.T) {
	dir := t.TempDir()
	page := drivertest.NewFakePage()
	page.ScreenshotFunc = func() ([]byte, error) { return []byte("fake-png"), nil }

	sink := NewDirSink(dir, func() (driver.Page, error) { return page, nil }, logging.Nop{})
	path, err := sink.Capture("retry_LoginTest.testValidLogin_1")
	require.NoError(t, err)
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(data))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "retry_LoginTest.testValidLogin_1"))
	assert.True(t, strings.HasSuffix(path, ".png"))
}

func TestDirSinkSanitizesTag(t *testing.T) {
	dir := t.TempDir()
	page := drivertest.NewFakePage()
	sink := NewDirSink(dir, func() (driver.Page, error) { return page, nil }, logging.Nop{})

	path, err := sink.Capture(`weird/tag\with:chars *? "x"`)
	require.NoError(t, err)
	base := filepath.Base(path)
	assert.NotContains(t, base, "/")
	assert.NotContains(t, base, ":")
	assert.NotContains(t, base, " ")
}

func TestDirSinkPropagatesSourceFailure(t *testing.T) {
	sink := NewDirSink(t.TempDir(), func() (driver.Page, error) {
		return nil, errors.New("no session")
	}, logging.Nop{})

	path, err := sink.Capture("tag")
	assert.Error(t, err)
	assert.Empty(t, path)
}

func TestDirSinkPropagatesScreenshotFailure(t *testing.T) {
	page := drivertest.NewFakePage()
	page.ScreenshotFunc = func() ([]byte, error) { return nil, errors.New("browser gone") }
	sink := NewDirSink(t.TempDir(), func() (driver.Page, error) { return page, nil }, logging.Nop{})

	_, err := sink.Capture("tag")
	assert.Error(t, err)
}

func TestNopSink(t *testing.T) {
	path, err := Nop{}.Capture("anything")
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestConcurrentCapturesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	page := drivertest.NewFakePage()
	sink := NewDirSink(dir, func() (driver.Page, error) { return page, nil }, logging.Nop{})

	paths := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			p, err := sink.Capture("same_tag")
			if err != nil {
				t.Error(err)
			}
			paths <- p
		}()
	}

	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		p := <-paths
		if seen[p] {
			t.Fatalf("duplicate evidence path: %s", p)
		}
		seen[p] = true
	}
}
