package notify

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/oshokin/paper-updater/internal/config"
	"github.com/oshokin/paper-updater/internal/logger"
	"github.com/oshokin/paper-updater/internal/rcon"
)

// Notifier delivers a player-facing message to the running server console.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// ForChannel returns the Notifier selected by the configuration.
func ForChannel(cfg *config.Config) (Notifier, error) {
	switch cfg.Channel {
	case config.NotifyScreen:
		return &ScreenNotifier{Session: cfg.ScreenSession}, nil
	case config.NotifyRcon:
		return &RconNotifier{
			Address:  cfg.RconAddress,
			Password: cfg.RconPassword,
		}, nil
	default:
		return nil, fmt.Errorf("no notifier for channel %q", cfg.Channel)
	}
}

// ScreenNotifier types a `say` command into the server console hosted in
// a screen session.
type ScreenNotifier struct {
	// Session is the screen session name.
	Session string
}

// Send stuffs the command into the session's window 0. The trailing
// carriage return submits the console line.
func (n *ScreenNotifier) Send(ctx context.Context, message string) error {
	command := fmt.Sprintf("say %s\r", message)

	if err := exec.CommandContext(ctx, "screen", "-S", n.Session, "-p", "0", "-X", "stuff", command).Run(); err != nil {
		return fmt.Errorf("send to screen session %s: %w", n.Session, err)
	}

	logger.InfoKV(ctx, "Sent console message", "channel", "screen", "session", n.Session)

	return nil
}

// RconNotifier sends a `say` command over the server's RCON port.
// Each Send dials a fresh session; announcements are rare.
type RconNotifier struct {
	// Address is the RCON endpoint (host:port).
	Address string
	// Password authenticates the RCON session.
	Password string
}

// Send executes `say {message}` on the server console.
func (n *RconNotifier) Send(ctx context.Context, message string) error {
	client, err := rcon.Dial(ctx, n.Address, n.Password)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if _, err = client.Command("say " + message); err != nil {
		return fmt.Errorf("send rcon command: %w", err)
	}

	logger.InfoKV(ctx, "Sent console message", "channel", "rcon", "address", n.Address)

	return nil
}
