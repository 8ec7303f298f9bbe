package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

// Gateway upgrades dashboard HTTP requests to WebSocket connections and
// services their join-vehicle and leave-vehicle commands.
type Gateway struct {
	upgrader      websocket.Upgrader
	authenticator *Authenticator
	registry      *Registry
	vehicles      core.VehicleDirectory
	sendBuffer    int
}

func NewGateway(opts *options.WebsocketOptions, authenticator *Authenticator, registry *Registry, vehicles core.VehicleDirectory) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard origin is enforced by the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		authenticator: authenticator,
		registry:      registry,
		vehicles:      vehicles,
		sendBuffer:    opts.SendBuffer,
	}
}

// ServeHTTP handles the handshake. The token travels in the Authorization
// header, or in the token query parameter for browser clients that cannot
// set headers on WebSocket dials.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	principal, err := g.authenticator.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			g.rejectUpgrade(w, r, err)
			return
		}
		log.Error(err, "Handshake authentication failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err, "WebSocket upgrade failed")
		return
	}

	c := newConnection(uuid.NewString(), principal, socket, g.sendBuffer)
	g.registry.add(c)
	log.Info("Client connected", "connectionId", c.id, "userId", principal.UserID, "role", principal.Role)

	go c.writePump()
	go g.readPump(c)
}

// rejectUpgrade completes the upgrade only to send the unauthorized signal
// the dashboard expects, then closes.
func (g *Gateway) rejectUpgrade(w http.ResponseWriter, r *http.Request, cause error) {
	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer socket.Close()

	frame, err := encodeFrame(EventUnauthorized, errorPayload{
		Message:   cause.Error(),
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	socket.SetWriteDeadline(time.Now().Add(writeWait))
	socket.WriteMessage(websocket.TextMessage, frame)
}

// readPump consumes client commands until the connection drops.
func (g *Gateway) readPump(c *connection) {
	defer func() {
		close(c.done)
		g.registry.remove(c.id)
		c.conn.Close()
		log.Info("Client disconnected", "connectionId", c.id, "userId", c.principal.UserID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Client read failed", "connectionId", c.id, "err", err.Error())
			}
			return
		}

		var frame envelope
		if err := json.Unmarshal(raw, &frame); err != nil {
			g.replyError(c, "malformed frame")
			continue
		}

		switch frame.Event {
		case CommandJoinVehicle:
			g.handleJoin(c, frame.Data)
		case CommandLeaveVehicle:
			g.handleLeave(c, frame.Data)
		default:
			g.replyError(c, fmt.Sprintf("unknown command %q", frame.Event))
		}
	}
}

// handleJoin authorizes and applies a join-vehicle command. SUPER_ADMIN
// joins anything; ADMIN only vehicles of their bound company; USER only
// assigned vehicles. A denial replies error and changes nothing.
func (g *Gateway) handleJoin(c *connection, data json.RawMessage) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.VehicleID == "" {
		g.replyError(c, "join-vehicle requires a vehicleId")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.authorizeJoin(ctx, c.principal, cmd.VehicleID); err != nil {
		log.Info("Join denied", "connectionId", c.id, "vehicleId", cmd.VehicleID, "reason", err.Error())
		g.replyError(c, err.Error())
		return
	}

	g.registry.joinRoom(c.id, cmd.VehicleID)
	if frame, err := encodeFrame(EventJoinedVehicle, joinedPayload{VehicleID: cmd.VehicleID}); err == nil {
		c.trySend(frame)
	}
}

func (g *Gateway) handleLeave(c *connection, data json.RawMessage) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.VehicleID == "" {
		g.replyError(c, "leave-vehicle requires a vehicleId")
		return
	}
	g.registry.leaveRoom(c.id, cmd.VehicleID)
}

func (g *Gateway) authorizeJoin(ctx context.Context, p *Principal, vehicleID string) error {
	switch p.Role {
	case RoleSuperAdmin:
		return nil
	case RoleAdmin:
		vehicle, err := g.vehicles.Get(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("unknown vehicle %s", vehicleID)
			}
			return fmt.Errorf("vehicle lookup failed")
		}
		if vehicle.CompanyID != p.CompanyID {
			return fmt.Errorf("vehicle %s belongs to another company", vehicleID)
		}
		return nil
	case RoleUser:
		if _, ok := p.AllowedVehicleIDs[vehicleID]; !ok {
			return fmt.Errorf("vehicle %s is not assigned to you", vehicleID)
		}
		return nil
	default:
		return fmt.Errorf("role %q may not join rooms", p.Role)
	}
}

func (g *Gateway) replyError(c *connection, message string) {
	frame, err := encodeFrame(EventError, errorPayload{Message: message, Timestamp: time.Now()})
	if err != nil {
		return
	}
	c.trySend(frame)
}
