package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestShortAndFull checks the version string formats.
func TestShortAndFull(t *testing.T) {
	t.Parallel()

	require.Equal(t, Version, Short())
	require.True(t, strings.HasPrefix(Full(), "version: "+Version))
	require.Contains(t, Full(), "commit: ")
}
