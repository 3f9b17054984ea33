package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		s := New()

		_, err := ulid.Parse(s)
		require.NoError(t, err)
		assert.False(t, seen[s], "duplicate id %s", s)
		assert.Greater(t, s, prev, "ids must be monotonically increasing")

		seen[s] = true
		prev = s
	}
}
