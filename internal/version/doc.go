// Package version exposes build metadata injected at link time and a cobra
// subcommand to print it.
package version
