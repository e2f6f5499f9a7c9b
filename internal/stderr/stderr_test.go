//go:build unix

package stderr

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/logging"
)

func TestCapture_ForwardsLinesToLog(t *testing.T) {
	var buf bytes.Buffer
	restore, err := Capture(logging.New(&buf, "debug"))
	require.NoError(t, err)

	_, _ = os.Stderr.WriteString("ALSA lib pcm.c: underrun occurred\n\n")
	restore()
	restore()

	out := buf.String()
	assert.Contains(t, out, "ALSA lib pcm.c: underrun occurred")
	assert.Contains(t, out, "source=stderr")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("source=stderr")), "blank lines are dropped")
}
