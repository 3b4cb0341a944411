package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitgist/gitgist/pkg/view"
)

func TestMaskKey(t *testing.T) {
	t.Run("long key keeps prefix and tail", func(t *testing.T) {
		masked := view.MaskKey("gg-AAAABBBBCCCCDDDD")
		assert.Equal(t, "gg-AAAA...DDDD", masked)
	})

	t.Run("short value left alone", func(t *testing.T) {
		assert.Equal(t, "gg-short", view.MaskKey("gg-short"))
	})
}
