package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateText(t *testing.T) {
	input := `{"a":"0123456789"}`
	out := truncateText(input, 8)
	require.Len(t, out, 8)
	require.Equal(t, input[:8], out)

	require.Equal(t, input, truncateText(input, 1024))
	require.Empty(t, truncateText(input, 0))
}

func TestTruncateTextKeepsRunesWhole(t *testing.T) {
	out := truncateText("héllo", 2)
	require.Equal(t, "h", out)
}

func TestRawLimit(t *testing.T) {
	cfg := Config{}
	require.Equal(t, 0, rawLimit(cfg))
	require.False(t, isRawCaptureEnabled(cfg))

	cfg.Debug.CaptureRawEnabled = true
	cfg.Debug.CaptureRawMaxBytes = 512
	require.Equal(t, 512, rawLimit(cfg))
	require.True(t, isRawCaptureEnabled(cfg))
}

func TestSafeOneLine(t *testing.T) {
	require.Equal(t, "a b", safeOneLine(" a\nb \n"))
}
