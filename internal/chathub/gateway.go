package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dmgo/backend/internal/chat"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"

	"go.uber.org/zap"
)

var (
	ErrUnauthorized     = errors.New("connection rejected")
	ErrConnectionClosed = errors.New("connection closed before registration")
)

// CommandAPI is the conversation service as seen from the gateway.
type CommandAPI interface {
	SendMessage(ctx context.Context, cmd models.SendMessageCommand) (models.SendResult, error)
	ReadMessage(ctx context.Context, cmd models.ReadMessageCommand) error
	RemoveMessages(ctx context.Context, cmd models.RemoveMessagesCommand) ([]string, error)
	MessageView(ctx context.Context, messageID string) (models.MessageView, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ProfileLookup is the user-profile collaborator.
type ProfileLookup interface {
	GetUserProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
}

// Gateway authenticates connections and turns their frames into commands.
type Gateway struct {
	registry *Registry
	verifier TokenVerifier
	users    ProfileLookup
	api      CommandAPI
	log      *zap.SugaredLogger
}

func NewGateway(registry *Registry, verifier TokenVerifier, users ProfileLookup, api CommandAPI, log *zap.SugaredLogger) *Gateway {
	return &Gateway{registry: registry, verifier: verifier, users: users, api: api, log: log}
}

// Accept authenticates conn with token and registers it. A rejected connection gets an
// error frame and is closed.
func (g *Gateway) Accept(ctx context.Context, conn Conn, token string) error {
	userID, err := g.authenticate(ctx, token)
	if err != nil {
		conn.Send(errorFrame(err.Error(), ""))
		conn.Close()
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	conn.Authenticate(userID)
	g.registry.Register(conn)
	if conn.Closed() {
		// The read pump may have finished before Register, leaving nothing for Disconnect to remove.
		g.registry.Unregister(conn)
		return ErrConnectionClosed
	}
	g.log.Debugw("Connection registered", "conn", conn.ID(), "userId", userID)
	return nil
}

func (g *Gateway) authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("authorization token missing")
	}
	userID, err := g.verifier.Verify(token)
	if err != nil {
		return "", errors.New("invalid token")
	}
	if g.users == nil {
		return userID, nil
	}

	profiles, err := g.users.GetUserProfiles(ctx, []string{userID})
	if err != nil {
		g.log.Warnw("Failed to look up connecting user", "userId", userID, "error", err)
		return "", errors.New("user lookup failed")
	}
	for _, p := range profiles {
		if p.UserID != userID {
			continue
		}
		if p.IsBanned {
			return "", errors.New("user is banned")
		}
		return userID, nil
	}
	return "", errors.New("unknown user")
}

// Disconnect drops conn from the registry.
func (g *Gateway) Disconnect(conn Conn) {
	if g.registry.Unregister(conn) {
		g.log.Debugw("Connection unregistered", "conn", conn.ID(), "userId", conn.UserID())
	}
}

type sendMessageData struct {
	ParticipantID string             `json:"participantId"`
	Message       string             `json:"message"`
	Type          models.MessageType `json:"type"`
}

type readMessageData struct {
	MessageID string `json:"messageId"`
}

type removeMessagesData struct {
	MessageIDs []string `json:"messageIds"`
}

// HandleFrame runs one client command. Failures are answered with an error frame; the connection stays open.
func (g *Gateway) HandleFrame(conn Conn, frame models.InboundFrame) {
	userID := conn.UserID()
	if userID == "" {
		conn.Send(errorFrame("not authenticated", frame.RequestID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.UpstreamTimeout)
	defer cancel()

	var (
		result interface{}
		err    error
	)
	switch frame.Event {
	case models.EventJoinRoom:
		var req models.JoinRoomRequest
		if err = decode(frame.Data, &req); err == nil {
			result, err = g.joinRoom(ctx, conn, userID, req.ChatID)
		}
		if err == nil {
			conn.Send(models.Frame{Event: models.EventRoomJoined, Data: result})
			return
		}

	case models.EventSendMessage:
		var req sendMessageData
		if err = decode(frame.Data, &req); err == nil {
			result, err = g.api.SendMessage(ctx, models.SendMessageCommand{
				CurrentParticipantID: userID,
				ParticipantID:        req.ParticipantID,
				Message:              req.Message,
				Type:                 req.Type,
			})
		}

	case models.EventReadMessage:
		var req readMessageData
		if err = decode(frame.Data, &req); err == nil {
			err = g.api.ReadMessage(ctx, models.ReadMessageCommand{UserID: userID, MessageID: req.MessageID})
		}

	case models.EventRemoveMessages:
		var req removeMessagesData
		if err = decode(frame.Data, &req); err == nil {
			var removed []string
			removed, err = g.api.RemoveMessages(ctx, models.RemoveMessagesCommand{CurrentUserID: userID, MessageIDs: req.MessageIDs})
			result = map[string][]string{"removed": removed}
		}

	default:
		err = fmt.Errorf("%w: unknown event %q", chat.ErrValidation, frame.Event)
	}

	if err != nil {
		g.log.Debugw("Command failed", "event", frame.Event, "userId", userID, "error", err)
		conn.Send(errorFrame(err.Error(), frame.RequestID))
		return
	}
	conn.Send(models.Frame{Event: models.EventAck, Data: models.AckPayload{Event: frame.Event, RequestID: frame.RequestID, Result: result}})
}

func (g *Gateway) joinRoom(ctx context.Context, conn Conn, userID, chatID string) (models.RoomJoinedPayload, error) {
	if chatID == "" {
		return models.RoomJoinedPayload{}, fmt.Errorf("%w: chatId is required", chat.ErrValidation)
	}
	ok, err := g.api.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return models.RoomJoinedPayload{}, err
	}
	if !ok {
		return models.RoomJoinedPayload{}, fmt.Errorf("%w: not a participant of this chat", chat.ErrForbidden)
	}

	room, err := g.registry.JoinRoom(conn, chatID)
	if err != nil {
		return models.RoomJoinedPayload{}, err
	}
	return models.RoomJoinedPayload{ChatID: chatID, Room: room}, nil
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", chat.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed data", chat.ErrValidation)
	}
	return nil
}

func errorFrame(message, requestID string) models.Frame {
	return models.Frame{Event: models.EventError, Data: models.ErrorPayload{Message: message, RequestID: requestID}}
}
