package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExactKey(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("LoginTest.testValidLogin", Policy{MaxRetries: 3}))

	p, ok := r.Resolve("LoginTest.testValidLogin")
	require.True(t, ok)
	assert.Equal(t, 3, p.MaxRetries)

	_, ok = r.Resolve("LoginTest.testInvalidLogin")
	assert.False(t, ok)
}

func TestResolveGlobPattern(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("CheckoutTest.*", Policy{MaxRetries: 5}))

	p, ok := r.Resolve("CheckoutTest.testPayWithCard")
	require.True(t, ok)
	assert.Equal(t, 5, p.MaxRetries)

	_, ok = r.Resolve("SearchTest.testPagination")
	assert.False(t, ok)
}

func TestFirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("LoginTest.*", Policy{MaxRetries: 1}))
	require.NoError(t, r.Register("LoginTest.testSlow", Policy{MaxRetries: 9}))

	p, ok := r.Resolve("LoginTest.testSlow")
	require.True(t, ok)
	assert.Equal(t, 1, p.MaxRetries, "overlapping patterns resolve in registration order")
}

func TestRegisterRejectsBadPattern(t *testing.T) {
	r := NewRegistry()
	err := r.Register("[", Policy{})
	require.Error(t, err)
	assert.Empty(t, r.Patterns())
}

func TestRegisteredPolicyIsNormalized(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("FlakyTest.*", Policy{MaxRetries: 2, ProgressiveDelay: true}))

	p, ok := r.Resolve("FlakyTest.testX")
	require.True(t, ok)
	assert.Equal(t, DefaultReason, p.Reason)
	assert.Equal(t, DefaultMaxDelay, p.MaxDelay)
}
