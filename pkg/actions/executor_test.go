package actions

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/selfheal/pkg/config"
	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/driver/drivertest"
	"github.com/entrhq/selfheal/pkg/logging"
	"github.com/entrhq/selfheal/pkg/session"
	"github.com/entrhq/selfheal/pkg/wait"
)

// captureSink records capture tags.
type captureSink struct {
	mu   sync.Mutex
	tags []string
}

func (s *captureSink) Capture(tag string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tag)
	return "/evidence/" + tag + ".png", nil
}

func (s *captureSink) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

func fastConfig() *config.Static {
	return config.NewStatic(map[string]string{
		config.KeyActionStabilize:     "1",
		config.KeyExplicitWaitTimeout: "60",
		config.KeyPollInterval:        "5",
	})
}

func newTestExecutor(t *testing.T, page *drivertest.FakePage) (*Executor, *logging.Recorder, *captureSink) {
	t.Helper()
	drv := drivertest.NewFakeDriver()
	drv.NewPage = func() *drivertest.FakePage { return page }
	cfg := fastConfig()
	sessions := session.NewManager(drv, cfg, logging.Nop{})
	if _, err := sessions.Create("worker-1", driver.Chromium); err != nil {
		t.Fatalf("session create failed: %v", err)
	}
	rec := logging.NewRecorder()
	sink := &captureSink{}
	waits := wait.NewProvider(sessions, cfg, logging.Nop{})
	return NewExecutor(waits, sink, cfg, rec), rec, sink
}

// attemptWarnings counts the per-attempt failure log entries.
func attemptWarnings(rec *logging.Recorder) int {
	n := 0
	for _, e := range rec.ByLevel("WARN") {
		if strings.Contains(e.Message, "attempt") {
			n++
		}
	}
	return n
}

func TestClickSucceedsFirstAttempt(t *testing.T) {
	page := drivertest.NewFakePage()
	e, rec, sink := newTestExecutor(t, page)

	require.NoError(t, e.Click("worker-1", "#submit", "submit the form"))
	assert.Equal(t, 1, page.Calls("Click"))
	assert.Zero(t, attemptWarnings(rec))
	assert.Empty(t, sink.Tags())
}

func TestRecoveryLadderRecoversOnThirdAttempt(t *testing.T) {
	page := drivertest.NewFakePage()
	failures := 0
	page.ClickFunc = func(selector string) error {
		if failures < 2 {
			failures++
			return driver.NewError("click", selector, driver.ErrElementNotFound)
		}
		return nil
	}
	e, rec, sink := newTestExecutor(t, page)

	require.NoError(t, e.Click("worker-1", "#flaky", "flaky button"))

	assert.Equal(t, 2, attemptWarnings(rec), "each failed attempt must log exactly once")
	recovered := false
	for _, entry := range rec.ByLevel("INFO") {
		if strings.Contains(entry.Message, "recovered on attempt 3") {
			recovered = true
		}
	}
	assert.True(t, recovered, "a late success must log the recovery attempt number")
	assert.Empty(t, sink.Tags(), "recovered actions capture no evidence")
}

func TestLadderExhaustionWrapsLastCause(t *testing.T) {
	page := drivertest.NewFakePage()
	cause := driver.NewError("click", "#gone", driver.ErrElementNotFound)
	page.ClickFunc = func(selector string) error { return cause }
	e, rec, sink := newTestExecutor(t, page)

	err := e.Click("worker-1", "#gone", "button that never appears")

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ActionClick, actionErr.Action)
	assert.Equal(t, "#gone", actionErr.Selector)
	assert.Equal(t, "button that never appears", actionErr.Description)
	assert.Equal(t, 3, actionErr.Attempts)
	assert.ErrorIs(t, err, driver.ErrElementNotFound, "the last cause must stay reachable")

	assert.Equal(t, 3, attemptWarnings(rec))
	require.Len(t, sink.Tags(), 1)
	assert.True(t, strings.HasPrefix(sink.Tags()[0], "action_click_"))
}

func TestDeclutterRunsBeforeFinalAttempt(t *testing.T) {
	page := drivertest.NewFakePage()
	page.ClickFunc = func(selector string) error {
		return driver.NewError("click", selector, driver.ErrStaleElement)
	}
	e, _, _ := newTestExecutor(t, page)

	_ = e.Click("worker-1", "#blocked", "button behind an overlay")

	// Stabilize probes liveness, declutter runs the overlay script.
	assert.GreaterOrEqual(t, page.Calls("URL"), 1)
	assert.GreaterOrEqual(t, page.Calls("Evaluate"), 1)
}

func TestMissingSessionSurfacesWithoutRetrying(t *testing.T) {
	drv := drivertest.NewFakeDriver()
	cfg := fastConfig()
	sessions := session.NewManager(drv, cfg, logging.Nop{})
	sink := &captureSink{}
	e := NewExecutor(wait.NewProvider(sessions, cfg, logging.Nop{}), sink, cfg, logging.Nop{})

	err := e.Click("worker-1", "#x", "click without a session")

	var noSession *session.NoActiveSessionError
	require.ErrorAs(t, err, &noSession)
	var actionErr *ActionError
	assert.False(t, errors.As(err, &actionErr), "session misuse must not be dressed up as an action failure")
	assert.Empty(t, sink.Tags())
}

func TestTypeFallsBackToScriptWhenValueDropped(t *testing.T) {
	page := drivertest.NewFakePage()
	var value string
	page.GetAttributeFunc = func(selector, name string) (string, error) {
		return value, nil
	}
	page.EvaluateFunc = func(script string) (interface{}, error) {
		if strings.Contains(script, "dispatchEvent") {
			value = "hello"
		}
		return true, nil
	}
	e, rec, _ := newTestExecutor(t, page)

	require.NoError(t, e.Type("worker-1", "#name", "hello", "name field"))
	assert.Equal(t, 1, page.Calls("Fill"))
	assert.GreaterOrEqual(t, page.Calls("Evaluate"), 1)
	assert.Zero(t, attemptWarnings(rec), "the script fallback happens inside one attempt")
}

func TestTypeValidationFailureExhaustsLadder(t *testing.T) {
	page := drivertest.NewFakePage()
	page.GetAttributeFunc = func(selector, name string) (string, error) {
		return "", nil
	}
	e, _, _ := newTestExecutor(t, page)

	err := e.Type("worker-1", "#stubborn", "hello", "input that rejects values")

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "hello", validation.Want)
}

func TestSelectValidatesSelection(t *testing.T) {
	page := drivertest.NewFakePage()
	e, _, _ := newTestExecutor(t, page)
	require.NoError(t, e.Select("worker-1", "#country", "NL", "country dropdown"))

	wrong := drivertest.NewFakePage()
	wrong.SelectOptionFunc = func(selector, value string) ([]string, error) {
		return []string{"US"}, nil
	}
	e2, _, _ := newTestExecutor(t, wrong)
	err := e2.Select("worker-1", "#country", "NL", "country dropdown")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestReadTextWaitsForVisibility(t *testing.T) {
	page := drivertest.NewFakePage()
	polls := 0
	page.IsVisibleFunc = func(selector string) (bool, error) {
		polls++
		return polls >= 2, nil
	}
	page.TextContentFunc = func(selector string) (string, error) {
		return "welcome back", nil
	}
	e, _, _ := newTestExecutor(t, page)

	got, err := e.ReadText("worker-1", "#greeting", "greeting banner")
	require.NoError(t, err)
	assert.Equal(t, "welcome back", got)
	assert.GreaterOrEqual(t, polls, 2)
}

func TestReadAttribute(t *testing.T) {
	page := drivertest.NewFakePage()
	page.GetAttributeFunc = func(selector, name string) (string, error) {
		if name == "href" {
			return "/home", nil
		}
		return "", nil
	}
	e, _, _ := newTestExecutor(t, page)

	got, err := e.ReadAttribute("worker-1", "a.home", "href", "home link target")
	require.NoError(t, err)
	assert.Equal(t, "/home", got)
}

func TestScrollReportsMissingElement(t *testing.T) {
	page := drivertest.NewFakePage()
	page.EvaluateFunc = func(script string) (interface{}, error) {
		return false, nil
	}
	e, _, _ := newTestExecutor(t, page)

	err := e.Scroll("worker-1", "#off-screen", "row far down the table")

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.ErrorIs(t, err, driver.ErrElementNotFound)
}

func TestNavigateRecoversFromTransientFailure(t *testing.T) {
	page := drivertest.NewFakePage()
	failed := false
	page.GotoFunc = func(url string) error {
		if !failed {
			failed = true
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}
	e, rec, _ := newTestExecutor(t, page)

	require.NoError(t, e.Navigate("worker-1", "https://app.example.test/login", "open login page"))
	assert.Equal(t, 1, attemptWarnings(rec))
}
