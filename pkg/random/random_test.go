package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomString(t *testing.T) {
	t.Run("length_and_alphabet", func(t *testing.T) {
		for _, length := range []int{1, 6, 8, 32} {
			s, err := NewRandomString(length)
			require.NoError(t, err)
			assert.Len(t, s, length)
			for _, r := range s {
				assert.True(t, strings.ContainsRune(alphabet, r), "unexpected symbol %q", r)
			}
		}
	})

	t.Run("invalid_length", func(t *testing.T) {
		_, err := NewRandomString(0)
		assert.Error(t, err)

		_, err = NewRandomString(-1)
		assert.Error(t, err)
	})

	t.Run("codes_differ", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			s, err := NewRandomString(8)
			require.NoError(t, err)
			assert.False(t, seen[s], "duplicate code %q", s)
			seen[s] = true
		}
	})
}
