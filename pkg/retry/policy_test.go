package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/selfheal/pkg/driver"
	"github.com/entrhq/selfheal/pkg/wait"
)

func TestProgressiveDelayDoublesAndCaps(t *testing.T) {
	p := Policy{Delay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, ProgressiveDelay: true}

	assert.Equal(t, 100*time.Millisecond, p.DelayFor(0))
	assert.Equal(t, 200*time.Millisecond, p.DelayFor(1))
	assert.Equal(t, 300*time.Millisecond, p.DelayFor(2), "doubling past the cap must clamp")
	assert.Equal(t, 300*time.Millisecond, p.DelayFor(7))
}

func TestFixedDelayIgnoresRetryIndex(t *testing.T) {
	p := Policy{Delay: 150 * time.Millisecond, MaxDelay: time.Second}

	for n := 0; n < 5; n++ {
		assert.Equal(t, 150*time.Millisecond, p.DelayFor(n))
	}
}

func TestDelayForHugeIndexDoesNotOverflow(t *testing.T) {
	p := Policy{Delay: time.Second, MaxDelay: time.Minute, ProgressiveDelay: true}
	assert.Equal(t, time.Minute, p.DelayFor(200))
}

func TestEmptyRetryOnMatchesAnything(t *testing.T) {
	p := Policy{}

	assert.True(t, p.Matches(errors.New("anything at all")))
	assert.True(t, p.Matches(&wait.TimeoutError{Target: "x"}))
}

func TestRetryOnFiltersByType(t *testing.T) {
	p := Policy{RetryOn: []CauseMatcher{On[*wait.TimeoutError]()}}

	assert.True(t, p.Matches(&wait.TimeoutError{Target: "spinner"}))
	assert.True(t, p.Matches(fmt.Errorf("step 3: %w", &wait.TimeoutError{Target: "row"})),
		"wrapped causes must still match")
	assert.False(t, p.Matches(errors.New("malformed csv row")))
}

func TestRetryOnSentinel(t *testing.T) {
	p := Policy{RetryOn: []CauseMatcher{OnSentinel(driver.ErrStaleElement)}}

	assert.True(t, p.Matches(driver.NewError("click", "#a", driver.ErrStaleElement)))
	assert.False(t, p.Matches(driver.NewError("click", "#a", driver.ErrElementNotFound)))
}

func TestNormalizedFillsReasonAndCap(t *testing.T) {
	p := Policy{MaxRetries: 1, ProgressiveDelay: true}.normalized()

	assert.Equal(t, DefaultReason, p.Reason)
	assert.Equal(t, DefaultMaxDelay, p.MaxDelay)
}
