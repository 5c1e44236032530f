// Package config defines updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the distribution API base URL, the pinned game
// version, the jar slot paths and the restart/notification parameters.
package config
