// Package artifact manages the jar slots of a server installation and
// their content fingerprints. Promotion is checksum-verified and keeps
// exactly one backup generation.
package artifact
