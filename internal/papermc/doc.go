// Package papermc is a thin client for the Paper build distribution API.
//
// It resolves the latest published build for a pinned game version and
// downloads build artifacts. The build index is trusted to be ordered
// ascending, so "latest" is simply the last entry.
package papermc
