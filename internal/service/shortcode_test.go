package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCode(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		first := ShortCode("https://example.com/very/long/path")
		second := ShortCode("https://example.com/very/long/path")

		assert.Equal(t, first, second)
	})

	t.Run("six lowercase hex characters", func(t *testing.T) {
		hexPattern := regexp.MustCompile(`^[0-9a-f]{6}$`)

		urls := []string{
			"https://example.com",
			"https://example.com/very/long/path",
			"https://go.dev/doc/effective_go",
		}

		for _, url := range urls {
			assert.Regexp(t, hexPattern, ShortCode(url))
		}
	})

	t.Run("known digests", func(t *testing.T) {
		assert.Equal(t, "bab008", ShortCode("https://example.com/very/long/path"))
		assert.Equal(t, "c984d0", ShortCode("https://example.com"))
		assert.Equal(t, "d688cc", ShortCode("https://go.dev/doc/effective_go"))
	})
}
