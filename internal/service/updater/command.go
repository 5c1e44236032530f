package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oshokin/paper-updater/internal/artifact"
	"github.com/oshokin/paper-updater/internal/config"
	"github.com/oshokin/paper-updater/internal/logger"
	"github.com/oshokin/paper-updater/internal/papermc"
	"github.com/oshokin/paper-updater/internal/service/notify"
	"github.com/oshokin/paper-updater/internal/service/sysctl"
)

// Error kinds of the update run. None are retried; each aborts the run
// and is surfaced to the invoker (typically a cron or timer log).
var (
	// ErrUpdaterAlreadyRunning means another run holds the marker file.
	ErrUpdaterAlreadyRunning = errors.New("the updater is already running")
	// ErrUpstreamUnavailable means the build index could not be fetched or parsed.
	ErrUpstreamUnavailable = errors.New("upstream build index unavailable")
	// ErrDownloadFailed means the artifact download did not complete.
	ErrDownloadFailed = errors.New("artifact download failed")
	// ErrNotificationFailed means players could not be warned; the restart is aborted.
	ErrNotificationFailed = errors.New("restart notification failed")
	// ErrRestartFailed means the service restart command returned non-zero.
	// The new jar is installed regardless.
	ErrRestartFailed = errors.New("service restart failed")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// runner holds the collaborators and mutable state of a single update run.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config   // Settings loaded from YAML.
	client     *papermc.Client  // Build index and artifact downloads.
	store      *artifact.Store  // Installed/staged/backup jar slots.
	notifier   notify.Notifier  // Player warning channel.
	restarter  sysctl.Restarter // Service control.
	sleep      func(time.Duration)
	markerPath string // Mutual-exclusion marker; empty when not held.
	stagedPath string // Staged download; empty once consumed or discarded.
}

// Run executes the update lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "paper-updater")

	r, err := newRunner(ctx, opts)
	if err != nil {
		r.cleanup(ctx)
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Update run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Update run completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	r := &runner{
		sleep: time.Sleep,
	}

	if IsUpdaterRunningNow(ctx, MarkerFilename) {
		return r, ErrUpdaterAlreadyRunning
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return r, err
	}

	r.markerPath = MarkerFilename

	if err = marker.Close(); err != nil {
		return r, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return r, err
	}

	r.cfg = cfg
	r.client = papermc.NewClient(cfg.APIBaseURL, cfg.Timeout)
	r.store = artifact.NewStore(cfg.InstallPath, cfg.BackupPath)
	r.restarter = &sysctl.Systemctl{UseSudo: cfg.UseSudo}

	r.notifier, err = notify.ForChannel(cfg)
	if err != nil {
		return r, err
	}

	return r, nil
}

// run executes the workflow:
// 1) Resolve the latest build of the pinned version.
// 2) Download it to the staged slot.
// 3) Compare fingerprints of staged and installed jars.
// 4) Equal: discard staged, report already installed.
// 5) Different: promote, warn players, wait the grace period, restart.
func (r *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Resolving latest build", "version", r.cfg.GameVersion)

	build, err := r.client.LatestBuild(ctx, r.cfg.GameVersion)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	logger.InfoKV(ctx, "Latest build resolved",
		"version", r.cfg.GameVersion, "build", build.Build)

	if err = r.downloadToStaging(ctx, build); err != nil {
		return err
	}

	same, stagedSum, err := r.isAlreadyInstalled(ctx)
	if err != nil {
		return err
	}

	if same {
		if err = r.store.DiscardStaged(r.stagedPath); err != nil {
			return err
		}

		r.stagedPath = ""

		logger.Infof(ctx, "Build #%d is already installed", build.Build)

		return nil
	}

	return r.rollout(ctx, build, stagedSum)
}

// downloadToStaging stages the artifact next to the installed jar.
func (r *runner) downloadToStaging(ctx context.Context, build papermc.Build) error {
	staged, err := r.store.Stage()
	if err != nil {
		return err
	}

	r.stagedPath = staged

	logger.InfoKV(ctx, "Downloading artifact",
		"artifact", papermc.ArtifactName(r.cfg.GameVersion, build.Build), "staged", staged)

	if err = r.client.DownloadBuild(ctx, r.cfg.GameVersion, build.Build, staged); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}

	return nil
}

// isAlreadyInstalled compares the staged and installed fingerprints.
// A missing installed jar counts as different so the first run installs.
func (r *runner) isAlreadyInstalled(ctx context.Context) (bool, []byte, error) {
	stagedSum, err := artifact.Fingerprint(r.stagedPath)
	if err != nil {
		return false, nil, err
	}

	installedSum, err := r.store.InstalledFingerprint()
	if err != nil {
		return false, nil, err
	}

	if installedSum == nil {
		logger.Info(ctx, "No installed jar found, proceeding with first install")
		return false, stagedSum, nil
	}

	return bytes.Equal(stagedSum, installedSum), stagedSum, nil
}

// rollout promotes the staged jar and restarts the service after warning
// players and honoring the grace period.
func (r *runner) rollout(ctx context.Context, build papermc.Build, stagedSum []byte) error {
	logger.InfoKV(ctx, "Installing new build", "build", build.Build)

	if err := r.store.Promote(r.stagedPath, stagedSum); err != nil {
		return err
	}

	r.stagedPath = ""

	message := restartMessage(r.cfg.GracePeriod)
	if err := r.notifier.Send(ctx, message); err != nil {
		// Players must not be restarted without warning.
		return fmt.Errorf("%w: %s", ErrNotificationFailed, err)
	}

	logger.InfoKV(ctx, "Waiting before restart", "grace_period", r.cfg.GracePeriod.String())

	// The grace period is a promise to players; it is not cancellable.
	r.sleep(r.cfg.GracePeriod)

	logger.InfoKV(ctx, "Restarting service", "service", r.cfg.ServiceName)

	if err := r.restarter.Restart(ctx, r.cfg.ServiceName); err != nil {
		return fmt.Errorf("%w: %s", ErrRestartFailed, err)
	}

	return nil
}

// cleanup removes the marker and any staged file left behind.
func (r *runner) cleanup(ctx context.Context) {
	if r.markerPath != "" {
		if err := os.Remove(r.markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf(ctx, "Unable to remove update marker: %v", err)
		}

		r.markerPath = ""
	}

	if r.stagedPath != "" && r.store != nil {
		if err := r.store.DiscardStaged(r.stagedPath); err != nil {
			logger.Warnf(ctx, "Unable to remove staged artifact: %v", err)
		}

		r.stagedPath = ""
	}

	logger.Info(ctx, "The updater has been stopped")
}
