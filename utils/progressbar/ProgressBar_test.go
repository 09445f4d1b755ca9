package progressbar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 10, 4, time.Hour)
	bar.Display()

	for i := 0; i < 6; i++ {
		bar.Increment()
	}
	bar.Close()
	bar.Close()

	assert.Equal(t, 4, bar.Progress())
	assert.Contains(t, buf.String(), "100.00%")
	assert.Contains(t, buf.String(), "|"+strings.Repeat("█", 10)+"|")
}

func TestProgressBarString(t *testing.T) {
	bar := NewProgressBar(&bytes.Buffer{}, 8, 4, time.Hour)
	bar.Increment()

	assert.True(t, strings.HasPrefix(bar.String(),
		"|"+strings.Repeat("█", 2)+strings.Repeat(" ", 6)+"| [25.00%"))
}
