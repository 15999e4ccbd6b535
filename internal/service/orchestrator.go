package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willemhelmet/prompt-pugalists/internal/battle"
	"github.com/willemhelmet/prompt-pugalists/internal/config"
	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/fingerprint"
	"github.com/willemhelmet/prompt-pugalists/internal/game"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/room"
	"github.com/willemhelmet/prompt-pugalists/internal/storage"
)

// Oracle is the subset of the oracle client the orchestrator needs. All
// battle-path methods degrade internally and never fail the round. Battle
// arguments are detached snapshots taken under the room mutex; the oracle
// never sees the live battle and implementations may read freely.
type Oracle interface {
	ResolveRound(ctx context.Context, b *game.Battle, action1, action2 string) game.Resolution
	InitialActionChoices(ctx context.Context, character, opponent game.Character, environment string) []game.ActionChoice
	SuggestAction(ctx context.Context, b *game.Battle, playerID string) string
	VisualFingerprint(ctx context.Context, imageURL string) string
}

// Transport delivers one event to one connection. Implemented by the
// websocket hub; delivery is best-effort and must not block on slow peers.
type Transport interface {
	Send(connectionID, event string, data interface{}) error
}

// Orchestrator drives the battle state machine. All room mutation happens
// under the room's mutex; slow oracle calls always run outside it.
type Orchestrator struct {
	registry  *room.Registry
	repo      storage.Repository
	oracle    Oracle
	transport Transport
	cfg       *config.LoadedConfig
}

func NewOrchestrator(registry *room.Registry, repo storage.Repository, oracle Oracle, transport Transport, cfg *config.LoadedConfig) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		repo:      repo,
		oracle:    oracle,
		transport: transport,
		cfg:       cfg,
	}
}

func (o *Orchestrator) send(connectionID, event string, data interface{}) {
	if err := o.transport.Send(connectionID, event, data); err != nil {
		logging.Debug("send failed", logging.Fields{constants.LogFieldConnID: connectionID, constants.LogFieldEvent: event})
	}
}

func (o *Orchestrator) sendError(connectionID, message string) {
	o.send(connectionID, constants.EventRoomError, errorPayload{Message: message})
}

// roomConnections snapshots every live connection bound to the room, host
// included. Caller must hold the room mutex.
func roomConnections(rm *game.Room) []string {
	out := make([]string, 0, 3)
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(rm.HostConnectionID)
	if rm.Player1 != nil && rm.Player1.Connected {
		add(rm.Player1.ConnectionID)
	}
	if rm.Player2 != nil && rm.Player2.Connected {
		add(rm.Player2.ConnectionID)
	}
	return out
}

// broadcast sends one event to every connection in the room. Caller must
// hold the room mutex; payloads are copied values so this is safe.
func (o *Orchestrator) broadcast(rm *game.Room, event string, data interface{}) {
	for _, connID := range roomConnections(rm) {
		o.send(connID, event, data)
	}
}

// HandleCreateRoom allocates a room owned by the calling connection.
func (o *Orchestrator) HandleCreateRoom(connectionID string, req CreateRoomRequest) {
	rm := o.registry.CreateRoom(connectionID, req.Environment, req.EnvironmentImageURL)
	logging.Info("room created", logging.Fields{constants.LogFieldRoomID: rm.ID, constants.LogFieldConnID: connectionID})
	o.send(connectionID, constants.EventRoomCreated, roomCreatedPayload{
		RoomID:      rm.ID,
		State:       game.RoomStateWaiting,
		Environment: rm.Environment,
		ExpiresAt:   rm.ExpiresAt,
	})
}

// HandleJoin fills the next free slot. The first joiner always lands in the
// player1 slot. When the second joiner arrives the room advances to
// character selection and everyone is told the room is full.
func (o *Orchestrator) HandleJoin(connectionID string, req JoinRequest) {
	username := strings.TrimSpace(req.Username)
	if req.RoomID == "" || username == "" {
		o.sendError(connectionID, constants.ErrInvalidRequest)
		return
	}

	slot, pos, err := o.registry.JoinRoom(strings.ToUpper(req.RoomID), connectionID, username)
	if err != nil {
		switch err {
		case room.ErrRoomNotFound:
			o.sendError(connectionID, constants.ErrRoomNotFound)
		case room.ErrRoomFull:
			o.sendError(connectionID, constants.ErrRoomFull)
		default:
			o.sendError(connectionID, constants.ErrInvalidRequest)
		}
		return
	}

	rm, err := o.registry.GetRoom(strings.ToUpper(req.RoomID))
	if err != nil {
		o.sendError(connectionID, constants.ErrRoomNotFound)
		return
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	logging.Info("player joined", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldPlayerID: slot.PlayerID,
		constants.LogFieldSlot:     string(pos),
	})
	o.broadcast(rm, constants.EventRoomPlayerJoined, playerJoinedPayload{
		RoomID:   rm.ID,
		Slot:     pos,
		PlayerID: slot.PlayerID,
		Username: slot.Username,
	})

	if rm.Player1 != nil && rm.Player2 != nil {
		rm.State = game.RoomStateCharacterSelect
		o.broadcast(rm, constants.EventRoomFull, roomFullPayload{RoomID: rm.ID, State: rm.State})
	}
}

// HandleRejoin rebinds a known player identity to a new connection and
// replays enough state for the client to resume: the battle snapshot and the
// player's current private choices.
func (o *Orchestrator) HandleRejoin(connectionID string, req RejoinRequest) {
	slot, pos, err := o.registry.ReattachPlayer(strings.ToUpper(req.RoomID), req.PlayerID, connectionID)
	if err != nil {
		switch err {
		case room.ErrRoomNotFound:
			o.sendError(connectionID, constants.ErrRoomNotFound)
		default:
			o.sendError(connectionID, constants.ErrUnknownPlayerForRoom)
		}
		return
	}

	rm, err := o.registry.GetRoom(strings.ToUpper(req.RoomID))
	if err != nil {
		o.sendError(connectionID, constants.ErrRoomNotFound)
		return
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	logging.Info("player rejoined", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldPlayerID: slot.PlayerID,
		constants.LogFieldSlot:     string(pos),
	})
	o.broadcast(rm, constants.EventRoomPlayerRejoined, playerRejoinedPayload{
		PlayerID: slot.PlayerID,
		Slot:     pos,
		Username: slot.Username,
	})

	if b := rm.Battle; b != nil {
		o.send(connectionID, constants.EventBattleStart, battleStartSnapshot(rm, b, o.cfg))
		if choices := choicesForSlot(b, pos); len(choices) > 0 {
			o.send(connectionID, constants.EventActionChoices, actionChoicesPayload{
				Choices:                choices,
				ActionTimeLimitSeconds: int(o.cfg.ActionTimeLimit.Seconds()),
			})
		}
	}
}

// HandleSelectCharacter binds a persisted character to the caller's slot.
func (o *Orchestrator) HandleSelectCharacter(connectionID string, req SelectCharacterRequest) {
	rm, ok := o.registry.RoomByConnection(connectionID)
	if !ok {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	char, err := o.repo.GetCharacter(req.CharacterID)
	if err != nil {
		o.sendError(connectionID, constants.ErrCharacterNotFound)
		return
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	slot := room.PlayerByConnection(rm, connectionID)
	pos, posOK := room.SlotByConnection(rm, connectionID)
	if slot == nil || !posOK {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	slot.CharacterID = char.ID
	slot.Ready = false

	o.broadcast(rm, constants.EventCharSelected, charSelectedPayload{Slot: pos, Character: *char})
}

// HandleReady marks the caller ready. When both players are ready with
// characters selected the battle is assembled: fingerprints resolved,
// opening choice sets generated for both players concurrently, then the
// room-wide battle start followed by private choice delivery.
func (o *Orchestrator) HandleReady(connectionID string) {
	rm, ok := o.registry.RoomByConnection(connectionID)
	if !ok {
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}

	rm.Mu.Lock()
	slot := room.PlayerByConnection(rm, connectionID)
	if slot == nil {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrNotInRoom)
		return
	}
	if slot.CharacterID == "" {
		rm.Mu.Unlock()
		o.sendError(connectionID, constants.ErrCharacterRequired)
		return
	}
	slot.Ready = true

	bothReady := rm.Player1 != nil && rm.Player2 != nil &&
		rm.Player1.Ready && rm.Player2.Ready &&
		rm.Player1.CharacterID != "" && rm.Player2.CharacterID != ""
	alreadyStarted := rm.State == game.RoomStateBattle || rm.Battle != nil

	var char1ID, char2ID, p1ID, p2ID string
	if bothReady && !alreadyStarted {
		// Claim the transition under the mutex so a racing second ready
		// cannot start the battle twice.
		rm.State = game.RoomStateBattle
		char1ID, char2ID = rm.Player1.CharacterID, rm.Player2.CharacterID
		p1ID, p2ID = rm.Player1.PlayerID, rm.Player2.PlayerID
	}
	rm.Mu.Unlock()

	if !bothReady || alreadyStarted {
		return
	}
	go o.startBattle(rm, char1ID, char2ID, p1ID, p2ID)
}

// startBattle runs the slow battle assembly path outside the room mutex.
func (o *Orchestrator) startBattle(rm *game.Room, char1ID, char2ID, p1ID, p2ID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	char1, err := o.repo.GetCharacter(char1ID)
	if err != nil {
		logging.Error("battle start aborted: character missing", err, logging.Fields{constants.LogFieldRoomID: rm.ID, constants.LogFieldCharID: char1ID})
		o.abortBattleStart(rm)
		return
	}
	char2, err := o.repo.GetCharacter(char2ID)
	if err != nil {
		logging.Error("battle start aborted: character missing", err, logging.Fields{constants.LogFieldRoomID: rm.ID, constants.LogFieldCharID: char2ID})
		o.abortBattleStart(rm)
		return
	}

	// Fingerprints and opening choices are independent; run them all
	// concurrently. Each degrades on its own, so the group never errors.
	var choices1, choices2 []game.ActionChoice
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if fp, _ := fingerprint.GetOrCreate(gctx, o.repo, o.oracle, char1.ID); fp != "" {
			char1.VisualFingerprint = fp
		}
		return nil
	})
	g.Go(func() error {
		if fp, _ := fingerprint.GetOrCreate(gctx, o.repo, o.oracle, char2.ID); fp != "" {
			char2.VisualFingerprint = fp
		}
		return nil
	})
	_ = g.Wait()

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		choices1 = o.oracle.InitialActionChoices(gctx, *char1, *char2, rm.Environment)
		return nil
	})
	g.Go(func() error {
		choices2 = o.oracle.InitialActionChoices(gctx, *char2, *char1, rm.Environment)
		return nil
	})
	_ = g.Wait()

	b := battle.New(rm.ID, *char1, *char2, p1ID, p2ID, rm.Environment, o.cfg.MaxHP)
	b.Player1Choices = choices1
	b.Player2Choices = choices2

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	rm.Battle = b
	logging.Info("battle started", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldBattleID: b.ID,
	})

	o.broadcast(rm, constants.EventBattleStart, battleStartSnapshot(rm, b, o.cfg))
	o.sendPrivateChoices(rm, b)
}

// abortBattleStart rolls the room back to character selection after a failed
// assembly so the players can re-select and try again.
func (o *Orchestrator) abortBattleStart(rm *game.Room) {
	rm.Mu.Lock()
	defer rm.Mu.Unlock()
	rm.State = game.RoomStateCharacterSelect
	if rm.Player1 != nil {
		rm.Player1.Ready = false
	}
	if rm.Player2 != nil {
		rm.Player2.Ready = false
	}
	o.broadcast(rm, constants.EventRoomError, errorPayload{Message: constants.ErrCharacterNotFound})
}

// sendPrivateChoices delivers each player's current choice set to their own
// connection only. Caller must hold the room mutex.
func (o *Orchestrator) sendPrivateChoices(rm *game.Room, b *game.Battle) {
	limit := int(o.cfg.ActionTimeLimit.Seconds())
	if rm.Player1 != nil && rm.Player1.Connected && len(b.Player1Choices) > 0 {
		o.send(rm.Player1.ConnectionID, constants.EventActionChoices, actionChoicesPayload{Choices: b.Player1Choices, ActionTimeLimitSeconds: limit})
	}
	if rm.Player2 != nil && rm.Player2.Connected && len(b.Player2Choices) > 0 {
		o.send(rm.Player2.ConnectionID, constants.EventActionChoices, actionChoicesPayload{Choices: b.Player2Choices, ActionTimeLimitSeconds: limit})
	}
}

func choicesForSlot(b *game.Battle, s game.Slot) []game.ActionChoice {
	if s == game.SlotPlayer1 {
		return b.Player1Choices
	}
	return b.Player2Choices
}

func battleStartSnapshot(rm *game.Room, b *game.Battle, cfg *config.LoadedConfig) battleStartPayload {
	return battleStartPayload{
		BattleID:               b.ID,
		RoomID:                 rm.ID,
		Environment:            rm.Environment,
		EnvironmentImageURL:    rm.EnvironmentImageURL,
		Player1:                b.Player1,
		Player2:                b.Player2,
		ActionTimeLimitSeconds: int(cfg.ActionTimeLimit.Seconds()),
	}
}

// HandleDisconnect detaches a dropped connection. The player slot and all
// battle progress survive; the room is told, and after the reconnect grace
// elapses without a rejoin the room is told again. Grace expiry never
// forfeits the battle.
func (o *Orchestrator) HandleDisconnect(connectionID string) {
	rm, slot, wasPlayer := o.registry.DetachConnection(connectionID)
	if rm == nil || !wasPlayer {
		return
	}

	rm.Mu.Lock()
	pos := game.SlotPlayer1
	if rm.Player2 != nil && rm.Player2.PlayerID == slot.PlayerID {
		pos = game.SlotPlayer2
	}
	playerID := slot.PlayerID
	username := slot.Username
	o.broadcast(rm, constants.EventRoomPlayerDropped, playerDroppedPayload{
		PlayerID: playerID,
		Slot:     pos,
		Username: username,
	})
	rm.Mu.Unlock()

	logging.Info("player disconnected", logging.Fields{
		constants.LogFieldRoomID:   rm.ID,
		constants.LogFieldPlayerID: playerID,
	})

	time.AfterFunc(o.cfg.ReconnectGrace, func() {
		rm.Mu.Lock()
		defer rm.Mu.Unlock()
		s := rm.SlotFor(pos)
		if s == nil || s.PlayerID != playerID || s.Connected {
			return
		}
		o.broadcast(rm, constants.EventRoomPlayerDropped, playerDroppedPayload{
			PlayerID:     playerID,
			Slot:         pos,
			Username:     username,
			GraceExpired: true,
		})
	})
}
