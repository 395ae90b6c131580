package correlate

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_GeneratesUniqueUUIDs(t *testing.T) {
	c := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := c.Issue()
		_, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
	assert.Equal(t, 100, c.Pending())
}

func TestResolve_ExactlyOnce(t *testing.T) {
	c := New()
	token := c.Issue()

	got, ok := c.Resolve(token, "/home/u/myplug")
	require.True(t, ok)
	assert.Equal(t, "/home/u/myplug", got)
	assert.Equal(t, 0, c.Pending())

	got, ok = c.Resolve(token, "/home/u/other")
	assert.False(t, ok, "duplicate response must be unmatched")
	assert.Empty(t, got)
}

func TestResolve_UnknownToken(t *testing.T) {
	c := New()
	c.Issue()

	_, ok := c.Resolve("not-a-token", "/x")
	assert.False(t, ok)
	_, ok = c.Resolve("", "/x")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Pending(), "unmatched responses leave pending requests alone")
}

func TestResolve_OutOfOrder(t *testing.T) {
	n := 0
	c := NewWithTokens(func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	})
	first := c.Issue()
	second := c.Issue()
	third := c.Issue()

	_, ok := c.Resolve(second, "b")
	require.True(t, ok)
	_, ok = c.Resolve(third, "c")
	require.True(t, ok)
	_, ok = c.Resolve(first, "a")
	require.True(t, ok)
	assert.Equal(t, 0, c.Pending())
}
