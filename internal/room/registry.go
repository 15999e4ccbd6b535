package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrUnknownPlayer = errors.New("unknown player for this room")
)

// codeCharset excludes visually confusable characters (I, O, 0, 1).
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Registry owns room lifecycle and the two-player join protocol. It is the
// single shared mutable map of room id -> room, constructed once at process
// start and injected wherever rooms are needed. It holds no timers of its
// own; the surrounding process must call ExpireRooms periodically.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*game.Room
	byConn  map[string]string // connection id -> room id (hosts and players)
	roomTTL time.Duration
}

// NewRegistry creates an empty registry with the given room TTL.
func NewRegistry(roomTTL time.Duration) *Registry {
	return &Registry{
		rooms:   make(map[string]*game.Room),
		byConn:  make(map[string]string),
		roomTTL: roomTTL,
	}
}

// generateCode returns a code unique among currently active rooms. Caller
// must hold r.mu.
func (r *Registry) generateCode() string {
	for {
		b := make([]byte, game.RoomCodeLength)
		for i := range b {
			b[i] = codeCharset[rand.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, taken := r.rooms[code]; !taken {
			return code
		}
	}
}

// CreateRoom allocates a fresh room in the waiting state, owned by the host
// connection that created it.
func (r *Registry) CreateRoom(hostConnectionID, environment, environmentImageURL string) *game.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rm := &game.Room{
		ID:                  r.generateCode(),
		HostConnectionID:    hostConnectionID,
		State:               game.RoomStateWaiting,
		Environment:         environment,
		EnvironmentImageURL: environmentImageURL,
		CreatedAt:           now,
		ExpiresAt:           now.Add(r.roomTTL),
	}
	r.rooms[rm.ID] = rm
	r.byConn[hostConnectionID] = rm.ID
	return rm
}

// GetRoom returns the room for the given code, or ErrRoomNotFound.
func (r *Registry) GetRoom(roomID string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// JoinRoom fills the first free slot: the first joiner always becomes
// player1, the second player2. Returns ErrRoomFull when both slots are taken.
func (r *Registry) JoinRoom(roomID, connectionID, username string) (*game.PlayerSlot, game.Slot, error) {
	rm, err := r.GetRoom(roomID)
	if err != nil {
		return nil, "", err
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	slot := &game.PlayerSlot{
		ConnectionID: connectionID,
		PlayerID:     uuid.NewString(),
		Username:     username,
		Connected:    true,
	}

	var pos game.Slot
	switch {
	case rm.Player1 == nil:
		rm.Player1 = slot
		pos = game.SlotPlayer1
	case rm.Player2 == nil:
		rm.Player2 = slot
		pos = game.SlotPlayer2
	default:
		return nil, "", ErrRoomFull
	}

	r.mu.Lock()
	r.byConn[connectionID] = roomID
	r.mu.Unlock()
	return slot, pos, nil
}

// IsRoomFull reports whether both slots are occupied.
func (r *Registry) IsRoomFull(roomID string) bool {
	rm, err := r.GetRoom(roomID)
	if err != nil {
		return false
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()
	return rm.Player1 != nil && rm.Player2 != nil
}

// SetRoomState transitions the room lifecycle state.
func (r *Registry) SetRoomState(roomID string, state game.RoomState) {
	rm, err := r.GetRoom(roomID)
	if err != nil {
		return
	}
	rm.Mu.Lock()
	rm.State = state
	rm.Mu.Unlock()
}

// PlayerByConnection resolves the player slot currently bound to the given
// connection, or nil. Caller must hold the room mutex.
func PlayerByConnection(rm *game.Room, connectionID string) *game.PlayerSlot {
	if rm.Player1 != nil && rm.Player1.ConnectionID == connectionID {
		return rm.Player1
	}
	if rm.Player2 != nil && rm.Player2.ConnectionID == connectionID {
		return rm.Player2
	}
	return nil
}

// SlotByConnection resolves the slot position bound to the given connection.
// Caller must hold the room mutex.
func SlotByConnection(rm *game.Room, connectionID string) (game.Slot, bool) {
	if rm.Player1 != nil && rm.Player1.ConnectionID == connectionID {
		return game.SlotPlayer1, true
	}
	if rm.Player2 != nil && rm.Player2.ConnectionID == connectionID {
		return game.SlotPlayer2, true
	}
	return "", false
}

// RoomByConnection returns the room a connection is bound to (as host or
// player), if any.
func (r *Registry) RoomByConnection(connectionID string) (*game.Room, bool) {
	r.mu.RLock()
	roomID, ok := r.byConn[connectionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	rm, err := r.GetRoom(roomID)
	if err != nil {
		return nil, false
	}
	return rm, true
}

// DetachConnection marks the slot bound to the connection as disconnected
// without freeing the slot: the player identity survives for a later rejoin.
// Returns the affected slot, if the connection belonged to a player.
func (r *Registry) DetachConnection(connectionID string) (*game.Room, *game.PlayerSlot, bool) {
	rm, ok := r.RoomByConnection(connectionID)
	if !ok {
		return nil, nil, false
	}
	r.mu.Lock()
	delete(r.byConn, connectionID)
	r.mu.Unlock()

	rm.Mu.Lock()
	defer rm.Mu.Unlock()
	slot := PlayerByConnection(rm, connectionID)
	if slot == nil {
		return rm, nil, false
	}
	slot.Connected = false
	return rm, slot, true
}

// ReattachPlayer rebinds a known player identity to a new connection. Used by
// the reconnect path: the slot and all battle progress are preserved, only
// the connection reference changes.
func (r *Registry) ReattachPlayer(roomID, playerID, connectionID string) (*game.PlayerSlot, game.Slot, error) {
	rm, err := r.GetRoom(roomID)
	if err != nil {
		return nil, "", err
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	for _, pos := range []game.Slot{game.SlotPlayer1, game.SlotPlayer2} {
		slot := rm.SlotFor(pos)
		if slot != nil && slot.PlayerID == playerID {
			slot.ConnectionID = connectionID
			slot.Connected = true
			r.mu.Lock()
			r.byConn[connectionID] = roomID
			r.mu.Unlock()
			return slot, pos, nil
		}
	}
	return nil, "", ErrUnknownPlayer
}

// RemoveRoom deletes a room and its connection bindings.
func (r *Registry) RemoveRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(r.rooms, roomID)
	for conn, id := range r.byConn {
		if id == rm.ID {
			delete(r.byConn, conn)
		}
	}
}

// ExpireRooms purges rooms whose TTL has elapsed at the given instant and
// returns how many were removed.
func (r *Registry) ExpireRooms(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rm := range r.rooms {
		if rm.ExpiresAt.Before(now) {
			delete(r.rooms, id)
			for conn, rid := range r.byConn {
				if rid == id {
					delete(r.byConn, conn)
				}
			}
			removed++
			logging.Info("room expired", logging.Fields{constants.LogFieldRoomID: id})
		}
	}
	return removed
}
