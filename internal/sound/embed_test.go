package sound

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCues(t *testing.T) {
	cues, err := Cues()
	require.NoError(t, err)

	for _, name := range []string{"focus", "select", "alert"} {
		data, ok := cues[name]
		require.True(t, ok, "missing cue %q", name)
		require.NotEmpty(t, data)
		// Every cue is a RIFF/WAVE container.
		require.GreaterOrEqual(t, len(data), 12)
		require.Equal(t, "RIFF", string(data[:4]))
		require.Equal(t, "WAVE", string(data[8:12]))
	}
}
