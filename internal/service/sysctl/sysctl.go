// Package sysctl restarts the managed systemd service. The restart is a
// one-shot privileged exec of systemctl, matching how an operator would
// run it by hand.
package sysctl

import (
	"context"
	"fmt"
	"os/exec"
)

// Restarter triggers a restart of the managed service.
type Restarter interface {
	Restart(ctx context.Context, service string) error
}

// Systemctl restarts units via the systemctl binary.
type Systemctl struct {
	// UseSudo prefixes the command with sudo for non-root operators.
	UseSudo bool
}

// Restart runs `[sudo] systemctl restart {service}` and waits for it.
// A non-zero exit is returned to the caller; by then the new jar is
// already installed, so the failure is terminal but not destructive.
func (s *Systemctl) Restart(ctx context.Context, service string) error {
	name := "systemctl"
	args := []string{"restart", service}

	if s.UseSudo {
		name = "sudo"
		args = append([]string{"systemctl"}, args...)
	}

	if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
		return fmt.Errorf("restart service %s: %w", service, err)
	}

	return nil
}
