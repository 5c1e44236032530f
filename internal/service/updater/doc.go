// Package updater implements the update run for a Paper server jar.
//
// A run resolves the latest build of the pinned game version, downloads
// it to a staging file beside the installed jar, and compares content
// fingerprints. Identical builds are discarded and reported; a different
// build is promoted (keeping one backup generation), players are warned
// through the configured console channel, and after a fixed grace period
// the systemd service is restarted. A marker file guarantees at most one
// concurrent run.
package updater
