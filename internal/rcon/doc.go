// Package rcon implements the small subset of the Source RCON protocol a
// Minecraft server console needs: password authentication and single
// command execution. Packets are length-prefixed little-endian frames
// terminated by two NUL bytes.
package rcon
