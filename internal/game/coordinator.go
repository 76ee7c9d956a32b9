package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/utils"
)

// ResultRecorder receives the outcome of every finished game.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result internal.GameResult) error
}

type nopRecorder struct{}

func (nopRecorder) RecordResult(context.Context, internal.GameResult) error { return nil }

const recordTimeout = 5 * time.Second

type Options struct {
	MaxPlayers     int
	RoomTTL        time.Duration
	SweepInterval  time.Duration
	PingInterval   time.Duration
	RoundTimeLimit time.Duration

	Recorder ResultRecorder

	// Hooks for tests
	NewRoomCode func() string
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxPlayers <= 0 || o.MaxPlayers > internal.MaxPlayersPerRoom {
		o.MaxPlayers = internal.MaxPlayersPerRoom
	}
	if o.RoomTTL <= 0 {
		o.RoomTTL = internal.DefaultRoomTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = internal.DefaultSweepInterval
	}
	if o.PingInterval <= 0 {
		o.PingInterval = internal.DefaultPingInterval
	}
	if o.RoundTimeLimit < 0 {
		o.RoundTimeLimit = 0
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Coordinator owns the registry and runs every room command.
type Coordinator struct {
	registry *Registry
	opts     Options
}

func NewCoordinator(opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		registry: NewRegistry(opts.NewRoomCode),
		opts:     opts,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// lockPlayerRoom resolves and locks the room of playerId. It returns nil when the player is
// not in a live room. On success the caller must unlock room.Mu.
func (c *Coordinator) lockPlayerRoom(playerId string) *internal.Room {
	if playerId == "" {
		return nil
	}
	room := c.registry.ResolveRoomForPlayer(playerId)
	if room == nil {
		return nil
	}
	room.Mu.Lock()
	if room.Closed || room.Players[playerId] == nil {
		room.Mu.Unlock()
		return nil
	}
	return room
}

// RoomSummary is the read-only lookup used by the HTTP API.
func (c *Coordinator) RoomSummary(code string) (internal.RoomSummary, bool) {
	code = utils.NormalizeRoomCode(code)
	if !utils.IsValidRoomCode(code) {
		return internal.RoomSummary{}, false
	}
	room := c.registry.Lookup(code)
	if room == nil {
		return internal.RoomSummary{}, false
	}
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	if room.Closed {
		return internal.RoomSummary{}, false
	}
	return room.Summary(), true
}

// =============================================================================
// ROOM MEMBERSHIP
// =============================================================================

// CreateRoom makes a new room with the requester as host and sole member.
func (c *Coordinator) CreateRoom(conn internal.Conn, cmd internal.CreateRoomCommand) (*internal.Player, error) {
	variant := internal.LookupVariant(cmd.Variant)
	settings := variant.DefaultSettings
	settings.RoundTimeLimit = int(c.opts.RoundTimeLimit / time.Second)
	if cmd.Settings != nil {
		if !variant.UsesSettings {
			return nil, internal.ErrWrongVariant
		}
		var err error
		if settings, err = variant.Apply(settings, *cmd.Settings); err != nil {
			return nil, err
		}
	}

	maxPlayers := cmd.MaxPlayers
	if maxPlayers <= 0 || maxPlayers > c.opts.MaxPlayers {
		maxPlayers = c.opts.MaxPlayers
	}
	if maxPlayers < internal.MinPlayersToStart {
		maxPlayers = internal.MinPlayersToStart
	}

	now := c.opts.Now()
	host := internal.NewPlayer(utils.GenerateID(), cmd.PlayerName, cmd.AvatarId, conn, now)
	room := internal.NewRoom(utils.GenerateID(), maxPlayers, variant, settings, now)

	room.Mu.Lock()
	defer room.Mu.Unlock()

	c.registry.CreateRoom(room, host)

	log.Info().Str("room", room.Code).Str("player", host.Id).Str("variant", variant.Name).
		Int("maxPlayers", maxPlayers).Msg("[CreateRoom] room created")

	sendTo(conn, internal.RoomCreatedEvent{
		Type:     internal.EventRoomCreated,
		PlayerId: host.Id,
		Room:     room.Snapshot(),
	})
	return host, nil
}

// JoinRoom adds the requester to the room with the given code.
func (c *Coordinator) JoinRoom(conn internal.Conn, cmd internal.JoinRoomCommand) (*internal.Player, error) {
	code := utils.NormalizeRoomCode(cmd.RoomCode)
	if !utils.IsValidRoomCode(code) {
		log.Debug().Str("room", code).Msg("[JoinRoom] malformed room code")
		return nil, internal.ErrRoomNotFound
	}
	room := c.registry.Lookup(code)
	if room == nil {
		return nil, internal.ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	player := internal.NewPlayer(utils.GenerateID(), cmd.PlayerName, cmd.AvatarId, conn, c.opts.Now())
	if err := c.registry.JoinRoom(room, player); err != nil {
		log.Info().Err(err).Str("room", code).Msg("[JoinRoom] rejected")
		return nil, err
	}

	log.Info().Str("room", code).Str("player", player.Id).Int("players", room.GetPlayerCount()).
		Msg("[JoinRoom] player joined")

	snapshot := room.Snapshot()
	sendTo(conn, internal.RoomJoinedEvent{
		Type:        internal.EventRoomJoined,
		PlayerId:    player.Id,
		Room:        snapshot,
		ChatHistory: room.ChatHistory,
	})
	broadcastToRoom(room, internal.PlayerJoinedEvent{
		Type:   internal.EventPlayerJoined,
		Player: internal.CreatePlayerSnapshot(player, room.HostId),
		Room:   snapshot,
	}, player.Id)
	return player, nil
}

// LeaveRoom runs the full leave path: membership, host migration, and resolution of an
// open round that the departure completed. It is shared by LEAVE_ROOM and disconnects.
func (c *Coordinator) LeaveRoom(playerId string) {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return
	}
	defer room.Mu.Unlock()

	removal, ok := c.registry.RemovePlayer(room, playerId)
	if !ok {
		return
	}

	if removal.RoomDeleted {
		cancelRoundTimer(room)
		log.Info().Str("room", room.Code).Msg("[LeaveRoom] last player left, room deleted")
		return
	}

	event := internal.PlayerLeftEvent{
		Type:       internal.EventPlayerLeft,
		PlayerId:   removal.Player.Id,
		PlayerName: removal.Player.Name,
		Room:       room.Snapshot(),
	}
	if removal.NewHost != nil {
		event.NewHostId = removal.NewHost.Id
		log.Info().Str("room", room.Code).Str("host", removal.NewHost.Id).Msg("[LeaveRoom] host migrated")
	}
	log.Info().Str("room", room.Code).Str("player", playerId).Int("remaining", room.GetPlayerCount()).
		Msg("[LeaveRoom] player left")
	broadcastToRoom(room, event, "")

	// The denominator just shrank; the remaining answers may now complete the round.
	if room.Status == internal.StatusPlaying && !room.RoundResolved && room.IsRoundComplete() {
		c.resolveRound(room, false)
	}
}
