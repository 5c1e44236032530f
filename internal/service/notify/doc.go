// Package notify delivers player-facing announcements to a running server
// console, either by stuffing a command into its screen session or over
// RCON. The update runner refuses to restart without a delivered warning,
// so senders report failure instead of swallowing it.
package notify
