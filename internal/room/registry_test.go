package room

import (
	"testing"
	"time"

	"github.com/willemhelmet/prompt-pugalists/internal/game"
)

func TestJoinRoom_SlotOrder(t *testing.T) {
	r := NewRegistry(time.Hour)
	rm := r.CreateRoom("host-conn", "a volcanic arena", "")

	s1, pos1, err := r.JoinRoom(rm.ID, "conn-a", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos1 != game.SlotPlayer1 {
		t.Fatalf("first joiner should take player1, got %s", pos1)
	}
	s2, pos2, err := r.JoinRoom(rm.ID, "conn-b", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos2 != game.SlotPlayer2 {
		t.Fatalf("second joiner should take player2, got %s", pos2)
	}
	if s1.PlayerID == s2.PlayerID {
		t.Fatalf("player ids must be distinct")
	}
	if !r.IsRoomFull(rm.ID) {
		t.Fatalf("room should be full after two joins")
	}

	_, _, err = r.JoinRoom(rm.ID, "conn-c", "carol")
	if err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestJoinRoom_NotFound(t *testing.T) {
	r := NewRegistry(time.Hour)
	if _, _, err := r.JoinRoom("NOPE99", "conn-a", "alice"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomCode_Format(t *testing.T) {
	r := NewRegistry(time.Hour)
	rm := r.CreateRoom("host-conn", "", "")
	if len(rm.ID) != game.RoomCodeLength {
		t.Fatalf("expected %d-char code, got %q", game.RoomCodeLength, rm.ID)
	}
	for _, c := range rm.ID {
		switch c {
		case 'I', 'O', '0', '1':
			t.Fatalf("code %q contains a confusable character", rm.ID)
		}
	}
}

func TestDetachAndReattach(t *testing.T) {
	r := NewRegistry(time.Hour)
	rm := r.CreateRoom("host-conn", "", "")
	slot, _, err := r.JoinRoom(rm.ID, "conn-a", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, s, wasPlayer := r.DetachConnection("conn-a")
	if got == nil || !wasPlayer {
		t.Fatalf("detach should report the player's room")
	}
	if s.Connected {
		t.Fatalf("slot should be marked disconnected")
	}
	if s.PlayerID != slot.PlayerID {
		t.Fatalf("detach must keep the player identity")
	}

	re, pos, err := r.ReattachPlayer(rm.ID, slot.PlayerID, "conn-a2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos != game.SlotPlayer1 {
		t.Fatalf("reattach must preserve the slot, got %s", pos)
	}
	if !re.Connected || re.ConnectionID != "conn-a2" {
		t.Fatalf("reattach should rebind the connection, got %+v", re)
	}
	if re.PlayerID != slot.PlayerID {
		t.Fatalf("reattach must keep the player id")
	}

	if _, _, err := r.ReattachPlayer(rm.ID, "ghost", "conn-x"); err != ErrUnknownPlayer {
		t.Fatalf("expected ErrUnknownPlayer, got %v", err)
	}
}

func TestExpireRooms(t *testing.T) {
	r := NewRegistry(time.Minute)
	rm := r.CreateRoom("host-conn", "", "")
	fresh := r.CreateRoom("host-conn-2", "", "")

	// Only rooms past their deadline go away.
	if n := r.ExpireRooms(time.Now()); n != 0 {
		t.Fatalf("nothing should expire yet, purged %d", n)
	}
	if n := r.ExpireRooms(rm.ExpiresAt.Add(time.Second)); n != 2 {
		t.Fatalf("expected both rooms to expire, purged %d", n)
	}
	if _, err := r.GetRoom(rm.ID); err != ErrRoomNotFound {
		t.Fatalf("expired room should be gone, got %v", err)
	}
	if _, err := r.GetRoom(fresh.ID); err != ErrRoomNotFound {
		t.Fatalf("expired room should be gone, got %v", err)
	}
	if _, ok := r.RoomByConnection("host-conn"); ok {
		t.Fatalf("connection binding should be purged with the room")
	}
}
