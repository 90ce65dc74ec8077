package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

// the coordinator operations the handlers drive
type Coordinator interface {
	Join(ctx context.Context, req coordinator.JoinRequest) (*coordinator.JoinResult, error)
	Leave(ctx context.Context, memberID string) (*coordinator.LeaveResult, error)
	SubmitStroke(ctx context.Context, memberID string, payload map[string]any) (*coordinator.StrokeResult, error)
	RequestState(ctx context.Context, memberID string) (*coordinator.StateResult, error)
	Disconnect(ctx context.Context, memberID string) []string
	Config() coordinator.Config
}

// registers every canvas message handler on the hub
func RegisterCanvasHandlers(hub *Hub, coord Coordinator) {
	hub.RegisterHandler(TypeJoin, JoinHandler(coord))
	hub.RegisterHandler(TypeLeave, LeaveHandler(coord))
	hub.RegisterHandler(TypeSubmitUpdate, SubmitUpdateHandler(coord))
	hub.RegisterHandler(TypeRequestState, RequestStateHandler(coord))
	hub.RegisterHandler(TypePing, PingHandler())
}

// handles join requests: binds the member to this connection, then admits it
func JoinHandler(coord Coordinator) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload JoinPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(coordinator.CodeInvalid, "failed to parse join request", err.Error())
			return nil
		}

		memberID := payload.MemberID
		if memberID == "" {
			memberID = msg.MemberID
		}

		if memberID == "" {
			client.SendError(coordinator.CodeValidation, "member_id is required", "")
			return nil
		}

		wasBound := client.MemberID() == memberID

		if err := hub.BindMember(client, memberID); err != nil {
			switch {
			case errors.Is(err, ErrMemberBound):
				client.SendError(coordinator.CodeAlreadyIn, "member is already connected from another session", "")
			case errors.Is(err, ErrClientBound):
				client.SendError(coordinator.CodeAlreadyIn, "this connection has already joined as another member", "")
			}

			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		result, err := coord.Join(ctx, coordinator.JoinRequest{
			MemberID: memberID,
			Name:     payload.Name,
			Metadata: payload.Metadata,
		})
		if err != nil {
			if !wasBound {
				hub.UnbindMember(client, memberID)
			}

			sendCoordinatorError(client, coord, err)
			return nil
		}

		// the socket dropped while the join was in flight
		if client.IsClosed() {
			coord.Disconnect(ctx, memberID)
			return nil
		}

		// a release queued by an earlier eviction may have landed between the bind and the join
		if err := hub.BindMember(client, memberID); err != nil {
			logger.Warn("lost member binding during join",
				"client_id", client.ID,
				"member_id", memberID,
				"error", err,
			)

			if _, leaveErr := coord.Leave(ctx, memberID); leaveErr != nil {
				logger.Warn("failed to undo join", "member_id", memberID, "error", leaveErr)
			}

			client.SendError(coordinator.CodeAlreadyIn, "member is already connected from another session", "")
			return nil
		}

		reply, err := NewMessage(coordinator.EventJoinAccepted, client.RoomID, memberID, JoinAcceptedPayload{
			MemberID:  result.Member.ID,
			Name:      result.Member.Name,
			IsHost:    result.IsHost,
			Evicted:   result.Evicted,
			Canvas:    result.Document,
			Occupancy: result.Occupancy,
		})
		if err != nil {
			return err
		}

		return client.Send(reply)
	}
}

// handles leave requests; an unbound connection gets a no-op acknowledgement
func LeaveHandler(coord Coordinator) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		bound := client.MemberID()

		if bound == "" {
			reply, err := NewMessage(coordinator.EventLeaveAcknowledged, client.RoomID, msg.MemberID, LeaveAcknowledgedPayload{
				MemberID:  msg.MemberID,
				Occupancy: coordinator.Occupancy{RoomID: client.RoomID, Capacity: coord.Config().Capacity},
			})
			if err != nil {
				return err
			}

			return client.Send(reply)
		}

		if msg.MemberID != "" && msg.MemberID != bound {
			client.SendError(coordinator.CodeNotAMember, "member_id does not match this connection", "")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		result, err := coord.Leave(ctx, bound)
		if err != nil && !errors.Is(err, coordinator.ErrRoomNotFound) {
			sendCoordinatorError(client, coord, err)
			return nil
		}

		hub.UnbindMember(client, bound)

		if result == nil {
			result = &coordinator.LeaveResult{
				Occupancy: coordinator.Occupancy{RoomID: client.RoomID, Capacity: coord.Config().Capacity},
			}
		}

		reply, err := NewMessage(coordinator.EventLeaveAcknowledged, client.RoomID, bound, LeaveAcknowledgedPayload{
			MemberID:  bound,
			Removed:   result.Removed,
			WasHost:   result.WasHost,
			NewHost:   result.NewHost,
			Occupancy: result.Occupancy,
		})
		if err != nil {
			return err
		}

		return client.Send(reply)
	}
}

// handles one stroke from a member
func SubmitUpdateHandler(coord Coordinator) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		memberID, ok := requireMember(client, msg)
		if !ok {
			return nil
		}

		var stroke map[string]any
		if err := msg.UnmarshalPayload(&stroke); err != nil {
			client.SendError(coordinator.CodeInvalid, "stroke must be a JSON object", err.Error())
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		result, err := coord.SubmitStroke(ctx, memberID, stroke)
		if err != nil {
			sendCoordinatorError(client, coord, err)
			return nil
		}

		strokeID := "unknown"
		if id, ok := stroke["id"].(string); ok && id != "" {
			strokeID = id
		}

		reply, err := NewMessage(coordinator.EventUpdateAcknowledge, client.RoomID, memberID, UpdateAcknowledgedPayload{
			StrokeID:     strokeID,
			Stroke:       result.Stroke,
			StrokeCount:  result.StrokeCount,
			Checkpointed: result.Checkpointed,
		})
		if err != nil {
			return err
		}

		return client.Send(reply)
	}
}

// handles resync requests
func RequestStateHandler(coord Coordinator) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		memberID, ok := requireMember(client, msg)
		if !ok {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		state, err := coord.RequestState(ctx, memberID)
		if err != nil {
			sendCoordinatorError(client, coord, err)
			return nil
		}

		reply, err := NewMessage(coordinator.EventStateSnapshot, client.RoomID, memberID, StateSnapshotPayload{
			Canvas:    state.Document,
			Occupancy: state.Occupancy,
		})
		if err != nil {
			return err
		}

		return client.Send(reply)
	}
}

// handles ping messages for connection keepalive
func PingHandler() MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		pong, err := NewMessage(TypePong, client.RoomID, client.MemberID(), nil)
		if err != nil {
			return err
		}

		return client.Send(pong)
	}
}

// returns the member bound to client, rejecting unbound connections and mismatched ids
func requireMember(client *Client, msg *Message) (string, bool) {
	bound := client.MemberID()

	if bound == "" {
		client.SendError(coordinator.CodeNotAMember, "join the canvas first", "")
		return "", false
	}

	if msg.MemberID != "" && msg.MemberID != bound {
		client.SendError(coordinator.CodeNotAMember, "member_id does not match this connection", "")
		return "", false
	}

	return bound, true
}

// reports a coordinator error to the originating client only
func sendCoordinatorError(client *Client, coord Coordinator, err error) {
	code := coordinator.ErrorCode(err)

	var message string
	switch code {
	case coordinator.CodeRoomFull:
		message = fmt.Sprintf("Canvas is full (%d members max). Please wait for someone to leave.", coord.Config().Capacity)
	case coordinator.CodePersistence:
		message = "Your update could not be saved and may not be durable. Please retry."
	case coordinator.CodeServerError:
		message = "failed to process message"
	default:
		message = err.Error()
	}

	if !coordinator.IsClientError(err) {
		logger.ErrorErr(err, "canvas operation failed",
			"client_id", client.ID,
			"member_id", client.MemberID(),
			"code", code,
		)
	}

	client.SendError(code, message, "")
}

// decodes the payload into v; an absent payload leaves v untouched
func (m *Message) UnmarshalPayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}

	return json.Unmarshal(m.Payload, v)
}
