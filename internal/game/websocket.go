package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/websockets"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// Session is one client connection. It is inert until CREATE_ROOM or JOIN_ROOM binds it
// to a player. Only the connection's read goroutine touches it.
type Session struct {
	Conn     internal.Conn
	PlayerId string
}

func NewSession(conn internal.Conn) *Session {
	return &Session{Conn: conn}
}

// HandleWebSocket upgrades the request and serves the connection until it dies.
func (c *Coordinator) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	client, err := websockets.Upgrade(w, r, c.opts.PingInterval)
	if err != nil {
		log.Warn().Err(err).Msg("[HandleWebSocket] upgrade failed")
		return
	}

	session := NewSession(client)
	log.Debug().Str("remote", client.RemoteAddr()).Msg("[HandleWebSocket] connection opened")

	client.Serve(func(message []byte) {
		c.HandleMessage(session, message)
	})

	c.Disconnect(session)
	log.Debug().Str("remote", client.RemoteAddr()).Msg("[HandleWebSocket] connection closed")
}

// Disconnect runs the leave path for a bound session; unbound sessions are a no-op.
func (c *Coordinator) Disconnect(session *Session) {
	if session.PlayerId == "" {
		return
	}
	c.LeaveRoom(session.PlayerId)
	session.PlayerId = ""
}

// HandleMessage decodes and dispatches one inbound message. Malformed input is logged and
// dropped; validation errors go back to this connection only; panics stop at this message.
func (c *Coordinator) HandleMessage(session *Session, raw []byte) {
	var envelope internal.Envelope
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("type", envelope.Type).Str("player", session.PlayerId).
				Str("panic", fmt.Sprint(rec)).Bytes("stack", debug.Stack()).
				Msg("[HandleMessage] handler panicked")
		}
	}()

	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type == "" {
		log.Warn().Err(err).Str("player", session.PlayerId).Msg("[HandleMessage] malformed message dropped")
		return
	}

	log.Debug().Str("type", envelope.Type).Str("player", session.PlayerId).Msg("[HandleMessage] received")

	err := c.dispatch(session, envelope.Type, raw)
	switch {
	case err == nil:
	case isMalformed(err):
		log.Warn().Err(err).Str("type", envelope.Type).Str("player", session.PlayerId).
			Msg("[HandleMessage] malformed message dropped")
	default:
		log.Debug().Err(err).Str("type", envelope.Type).Str("player", session.PlayerId).
			Msg("[HandleMessage] command rejected")
		sendError(session.Conn, err)
	}
}

func (c *Coordinator) dispatch(session *Session, msgType string, raw []byte) error {
	switch msgType {
	case internal.CmdCreateRoom:
		var cmd internal.CreateRoomCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		if c.isBound(session) {
			return internal.ErrAlreadyInRoom
		}
		player, err := c.CreateRoom(session.Conn, cmd)
		if err != nil {
			return err
		}
		session.PlayerId = player.Id

	case internal.CmdJoinRoom:
		var cmd internal.JoinRoomCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		if c.isBound(session) {
			return internal.ErrAlreadyInRoom
		}
		player, err := c.JoinRoom(session.Conn, cmd)
		if err != nil {
			return err
		}
		session.PlayerId = player.Id

	case internal.CmdPlayerReady:
		var cmd internal.PlayerReadyCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.HandlePlayerReady(session.PlayerId, cmd.Ready)

	case internal.CmdSelectPanel:
		var cmd internal.SelectPanelCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.SelectPanel(session.PlayerId, cmd)

	case internal.CmdUpdateSettings:
		var cmd internal.UpdateSettingsCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.UpdateSettings(session.PlayerId, cmd.SettingsPatch)

	case internal.CmdStartGame:
		var cmd internal.StartGameCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.StartGame(session.PlayerId, cmd)

	case internal.CmdSubmitAnswer:
		var cmd internal.SubmitAnswerCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.SubmitAnswer(session.PlayerId, cmd)

	case internal.CmdNextQuestion:
		return c.NextQuestion(session.PlayerId)

	case internal.CmdPlayAgain:
		return c.PlayAgain(session.PlayerId)

	case internal.CmdChatMessage:
		var cmd internal.ChatMessageCommand
		if err := decode(raw, &cmd); err != nil {
			return err
		}
		return c.PostChatMessage(session.PlayerId, cmd.Message)

	case internal.CmdLeaveRoom:
		c.Disconnect(session)

	default:
		return fmt.Errorf("%w: unknown type %q", internal.ErrMalformedMessage, msgType)
	}
	return nil
}

func (c *Coordinator) isBound(session *Session) bool {
	return session.PlayerId != "" && c.registry.ResolveRoomForPlayer(session.PlayerId) != nil
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", internal.ErrMalformedMessage, err)
	}
	return nil
}

func isMalformed(err error) bool {
	return errors.Is(err, internal.ErrMalformedMessage)
}
