package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/paper-updater/internal/config"
)

// TestForChannel dispatches on the configured notify channel.
func TestForChannel(t *testing.T) {
	t.Parallel()

	notifier, err := ForChannel(&config.Config{
		Channel:       config.NotifyScreen,
		ScreenSession: "paper",
	})
	require.NoError(t, err)

	screen, ok := notifier.(*ScreenNotifier)
	require.True(t, ok)
	require.Equal(t, "paper", screen.Session)

	notifier, err = ForChannel(&config.Config{
		Channel:      config.NotifyRcon,
		RconAddress:  "127.0.0.1:25575",
		RconPassword: "hunter2",
	})
	require.NoError(t, err)

	rcon, ok := notifier.(*RconNotifier)
	require.True(t, ok)
	require.Equal(t, "127.0.0.1:25575", rcon.Address)

	_, err = ForChannel(&config.Config{Channel: "smoke-signals"})
	require.Error(t, err)
}
