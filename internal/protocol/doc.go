// Package protocol decodes the room-status packet sent by game servers.
//
// Layout (little-endian):
//
//	byte 0     high nibble: message type (12 = room status), low nibble: unused
//	byte 1     room count hint, ignored
//	bytes 2-3  protocol version, uint16
//	bytes 4..  room table, two 4-bit room codes per byte, high nibble first
//
// A room code c in [0,8] is an unlocked room with c players. A code in
// [9,15] is a locked room with c-8 players.
package protocol
