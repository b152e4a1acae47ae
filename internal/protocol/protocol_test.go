package protocol

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

func TestDecode_Example(t *testing.T) {
	payload := []byte{0xC0, 0x00, 0x01, 0x00, 0x23, 0x9F}

	msg, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}

	if msg.Version != 1 {
		t.Errorf("Version = %d, want 1", msg.Version)
	}
	if msg.Header != 0xC0 {
		t.Errorf("Header = %#x, want 0xC0", msg.Header)
	}

	want := []domain.RoomStatus{
		{Name: "0", Players: 2, Locked: false},
		{Name: "1", Players: 3, Locked: false},
		{Name: "2", Players: 1, Locked: true},
		{Name: "3", Players: 7, Locked: true},
	}
	if !reflect.DeepEqual(msg.Rooms, want) {
		t.Errorf("Rooms = %+v, want %+v", msg.Rooms, want)
	}
	if msg.TotalPlayers != 13 {
		t.Errorf("TotalPlayers = %d, want 13", msg.TotalPlayers)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantErr error
	}{
		{name: "nil", payload: nil, wantErr: ErrShortPacket},
		{name: "empty", payload: []byte{}, wantErr: ErrShortPacket},
		{name: "three bytes with valid type", payload: []byte{0xC0, 0x00, 0x01}, wantErr: ErrShortPacket},
		{name: "type 1", payload: []byte{0x10, 0x00, 0x00, 0x00}, wantErr: ErrUnexpectedType},
		{name: "type 0 with rooms", payload: []byte{0x0C, 0x00, 0x01, 0x00, 0x23}, wantErr: ErrUnexpectedType},
		{name: "type 13", payload: []byte{0xD0, 0x00, 0x01, 0x00, 0x11}, wantErr: ErrUnexpectedType},
		{name: "type 15", payload: []byte{0xFF, 0xFF, 0xFF, 0xFF}, wantErr: ErrUnexpectedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() err=%v, want %v", err, tt.wantErr)
			}
			if msg != nil {
				t.Errorf("Decode() returned message %+v on reject", msg)
			}
			if !IsReject(err) {
				t.Errorf("IsReject(%v) = false", err)
			}
		})
	}
}

func TestDecode_RejectsEveryOtherType(t *testing.T) {
	for tag := 0; tag < 16; tag++ {
		payload := []byte{byte(tag << 4), 0x00, 0x02, 0x00, 0x12, 0x34}
		_, err := Decode(payload)
		if tag == TypeRoomStatus {
			if err != nil {
				t.Errorf("tag %d: unexpected err %v", tag, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnexpectedType) {
			t.Errorf("tag %d: err=%v, want ErrUnexpectedType", tag, err)
		}
	}
}

func TestDecode_HeaderOnly(t *testing.T) {
	msg, err := Decode([]byte{0xC3, 0x07, 0x34, 0x12})
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}
	if msg.Version != 0x1234 {
		t.Errorf("Version = %#x, want 0x1234", msg.Version)
	}
	if len(msg.Rooms) != 0 {
		t.Errorf("Rooms = %+v, want empty", msg.Rooms)
	}
	if msg.TotalPlayers != 0 {
		t.Errorf("TotalPlayers = %d, want 0", msg.TotalPlayers)
	}
}

func TestDecode_CodeMapping(t *testing.T) {
	for code := 0; code < 16; code++ {
		// Put the code in the high nibble and 0 in the low nibble.
		msg, err := Decode([]byte{0xC0, 0x00, 0x00, 0x00, byte(code << 4)})
		if err != nil {
			t.Fatalf("code %d: err=%v", code, err)
		}
		room := msg.Rooms[0]

		wantLocked := code > 8
		wantPlayers := code
		if wantLocked {
			wantPlayers = code - 8
		}

		if room.Locked != wantLocked || room.Players != wantPlayers {
			t.Errorf("code %d: got players=%d locked=%v, want players=%d locked=%v",
				code, room.Players, room.Locked, wantPlayers, wantLocked)
		}
		if msg.Rooms[1].Players != 0 || msg.Rooms[1].Locked {
			t.Errorf("code %d: low nibble room should be empty, got %+v", code, msg.Rooms[1])
		}
	}
}

func TestDecode_TotalIsSumOfRooms(t *testing.T) {
	payload := []byte{0xC0, 0x10, 0xFF, 0xFF}
	for b := 0; b < 256; b++ {
		payload = append(payload, byte(b))
	}

	msg, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}
	if len(msg.Rooms) != 512 {
		t.Fatalf("len(Rooms) = %d, want 512", len(msg.Rooms))
	}

	sum := 0
	for i, r := range msg.Rooms {
		sum += r.Players
		if r.Players < 0 || r.Players > 8 {
			t.Errorf("room %d: players out of range: %d", i, r.Players)
		}
	}
	if msg.TotalPlayers != sum {
		t.Errorf("TotalPlayers = %d, sum of rooms = %d", msg.TotalPlayers, sum)
	}
	if msg.Rooms[511].Name != "511" {
		t.Errorf("last room name = %q, want 511", msg.Rooms[511].Name)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	payload := []byte{0xC0, 0x04, 0x02, 0x00, 0x08, 0x9A, 0x71}

	a, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}
	b, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two decodes differ: %+v vs %+v", a, b)
	}
}

func TestSnapshot(t *testing.T) {
	msg, err := Decode([]byte{0xC4, 0x00, 0x05, 0x00, 0x21})
	if err != nil {
		t.Fatalf("Decode() err=%v", err)
	}

	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	snap := msg.Snapshot(at)

	if snap.Version != 5 || snap.TotalPlayers != 3 || snap.MaxPlayers != 0xC4 {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}
	if !snap.LastFetched.Equal(at) {
		t.Errorf("LastFetched = %v, want %v", snap.LastFetched, at)
	}
	if len(snap.Rooms) != 2 {
		t.Errorf("len(Rooms) = %d, want 2", len(snap.Rooms))
	}
}
