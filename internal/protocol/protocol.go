package protocol

import (
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

const (
	// TypeRoomStatus is the only message type the decoder accepts.
	TypeRoomStatus = 12

	// HeaderSize is the number of bytes preceding the room table.
	HeaderSize = 4

	lockedOffset = 8
)

var (
	ErrShortPacket    = errors.New("protocol: packet shorter than header")
	ErrUnexpectedType = errors.New("protocol: not a room status message")
)

// RoomStatusMessage is a decoded room status packet.
type RoomStatusMessage struct {
	Header       byte
	Version      uint16
	Rooms        []domain.RoomStatus
	TotalPlayers int
}

// Decode parses a raw payload. It returns ErrShortPacket or ErrUnexpectedType
// for packets that must be ignored, and never fails once the type matches.
func Decode(payload []byte) (*RoomStatusMessage, error) {
	if len(payload) < HeaderSize {
		return nil, ErrShortPacket
	}
	if payload[0]>>4 != TypeRoomStatus {
		return nil, ErrUnexpectedType
	}

	table := payload[HeaderSize:]
	msg := &RoomStatusMessage{
		Header:  payload[0],
		Version: binary.LittleEndian.Uint16(payload[2:4]),
		Rooms:   make([]domain.RoomStatus, 0, len(table)*2),
	}

	for _, b := range table {
		for _, code := range [2]byte{b >> 4, b & 0x0F} {
			room := decodeRoom(len(msg.Rooms), code)
			msg.TotalPlayers += room.Players
			msg.Rooms = append(msg.Rooms, room)
		}
	}

	return msg, nil
}

// IsReject reports whether err is one of the decoder's rejection errors.
func IsReject(err error) bool {
	return errors.Is(err, ErrShortPacket) || errors.Is(err, ErrUnexpectedType)
}

func decodeRoom(index int, code byte) domain.RoomStatus {
	room := domain.RoomStatus{
		Name:    strconv.Itoa(index),
		Players: int(code),
	}
	// Code 8 is a full unlocked room, not a locked empty one.
	if code > lockedOffset {
		room.Locked = true
		room.Players = int(code) - lockedOffset
	}
	return room
}

// Snapshot turns the message into a registry snapshot stamped with at.
func (m *RoomStatusMessage) Snapshot(at time.Time) *domain.ServerSnapshot {
	return &domain.ServerSnapshot{
		Version:      m.Version,
		TotalPlayers: m.TotalPlayers,
		MaxPlayers:   m.Header,
		LastFetched:  at,
		Rooms:        m.Rooms,
	}
}
