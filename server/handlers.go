// File: server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/crypt/bollywood"
	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/render"
	"github.com/lguibr/crypt/utils"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// HandleSubscribe places the client in a room as a player (or spectator with
// ?spectate=1), streams the room's broadcasts and forwards ClientInput frames
// as PlayerInput. The first frame is always a PlayerJoined naming the room;
// spectators get Index -1.
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		id := uuid.NewString()
		logger := s.logger.With(zap.String("subscriber", id), zap.String("remote", ws.Request().RemoteAddr))
		logger.Info("HandleSubscribe: new connection")

		defer func() {
			if r := recover(); r != nil {
				logger.Error("HandleSubscribe: panic recovered",
					zap.Any("reason", r), zap.ByteString("stack", debug.Stack()))
			}
			_ = ws.Close()
			logger.Info("HandleSubscribe: connection closed")
		}()

		if s.engine == nil || s.roomManager == nil {
			logger.Error("HandleSubscribe: no room manager")
			return
		}

		query := ws.Request().URL.Query()
		spectate := query.Get("spectate") != ""
		assigned, err := s.findRoom(spectate)
		if errors.Is(err, game.ErrNoRoom) && !spectate {
			logger.Info("HandleSubscribe: every room is full, spectating")
			spectate = true
			assigned, err = s.findRoom(true)
		}
		if err != nil {
			logger.Warn("HandleSubscribe: no room assigned", zap.Error(err))
			_ = websocket.JSON.Send(ws, game.PlayerJoined{MessageType: "playerJoined", Index: -1})
			return
		}
		logger = logger.With(zap.String("room", assigned.RoomID))

		joined := game.PlayerJoined{MessageType: "playerJoined", Index: -1, SessionID: assigned.RoomID}
		if !spectate {
			if joined, err = s.join(assigned.RoomPID); err != nil {
				logger.Warn("HandleSubscribe: join failed, spectating", zap.Error(err))
			}
			joined.SessionID = assigned.RoomID
		}
		if err := websocket.JSON.Send(ws, joined); err != nil {
			logger.Debug("HandleSubscribe: could not send join reply", zap.Error(err))
			return
		}

		format := query.Get("format")
		if format != FormatASCII {
			format = FormatJSON
		}
		done := make(chan struct{})
		handlerPID := s.engine.Spawn(bollywood.NewProps(NewConnectionHandlerProducer(ConnectionHandlerArgs{
			ID:     id,
			Logger: s.logger,
			Pool:   s.pool,
			Write:  newFrameWriter(ws, format, renderOptions(query.Get("cols"), query.Get("rows"), false)),
			Limit:  s.outboxLimit,
			Done:   done,
		})))
		s.engine.Send(assigned.RoomPID, game.Subscribe{PID: handlerPID}, nil)

		s.readLoop(ws, assigned.RoomPID, joined.Index, logger)

		s.engine.Send(assigned.RoomPID, game.Unsubscribe{PID: handlerPID}, nil)
		s.engine.Stop(handlerPID)
		select {
		case <-done:
		case <-time.After(s.askTimeout):
			logger.Warn("HandleSubscribe: timeout waiting for connection handler to stop")
		}
	}
}

// askRoom sends a room request to the RoomManager and unwraps the reply.
func (s *Server) askRoom(msg interface{}) (game.AssignRoomResponse, error) {
	reply, err := s.engine.Ask(s.roomManager, msg, s.askTimeout)
	if err != nil {
		return game.AssignRoomResponse{}, err
	}
	resp, ok := reply.(game.AssignRoomResponse)
	if !ok {
		return game.AssignRoomResponse{}, fmt.Errorf("unexpected room reply %T", reply)
	}
	if resp.Err != nil {
		return resp, resp.Err
	}
	if resp.RoomPID == nil {
		return resp, fmt.Errorf("room %q: %w", resp.RoomID, game.ErrUnknownRoom)
	}
	return resp, nil
}

func (s *Server) findRoom(spectate bool) (game.AssignRoomResponse, error) {
	return s.askRoom(game.FindRoomRequest{Spectate: spectate})
}

func (s *Server) lookupRoom(r *http.Request) (game.AssignRoomResponse, error) {
	return s.askRoom(game.GetRoomRequest{RoomID: r.URL.Query().Get("room")})
}

// join asks a room for a player slot. The reply is returned even when the room
// refused it, so it can be forwarded to the client.
func (s *Server) join(roomPID *bollywood.PID) (game.PlayerJoined, error) {
	rejected := game.PlayerJoined{MessageType: "playerJoined", Index: -1}
	reply, err := s.engine.Ask(roomPID, game.PlayerJoinRequest{}, s.askTimeout)
	if err != nil {
		return rejected, err
	}
	joined, ok := reply.(game.PlayerJoined)
	if !ok {
		return rejected, fmt.Errorf("unexpected join reply %T", reply)
	}
	return joined, joined.Err
}

// readLoop reads ClientInput frames until the socket fails. Spectators' input is discarded.
func (s *Server) readLoop(ws *websocket.Conn, roomPID *bollywood.PID, index int, logger *zap.Logger) {
	for {
		var in game.ClientInput
		if err := websocket.JSON.Receive(ws, &in); err != nil {
			logger.Debug("ReadLoop: receive ended", zap.Error(err))
			return
		}
		if index < 0 {
			continue
		}
		s.engine.Send(roomPID, game.PlayerInput{
			Index:     index,
			Direction: utils.DirectionFromString(in.Direction),
			Fire:      in.Fire,
		}, nil)
	}
}

// roomSnapshot resolves the ?room= of r and asks that room for its snapshot.
func (s *Server) roomSnapshot(r *http.Request) (game.Snapshot, error) {
	room, err := s.lookupRoom(r)
	if err != nil {
		return game.Snapshot{}, err
	}
	reply, err := s.engine.Ask(room.RoomPID, game.GetSnapshotRequest{}, s.askTimeout)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, ok := reply.(game.Snapshot)
	if !ok {
		return game.Snapshot{}, fmt.Errorf("unexpected snapshot reply %T", reply)
	}
	return snap, nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownRoom):
		return http.StatusNotFound
	case errors.Is(err, bollywood.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusServiceUnavailable
}

// HandleState serves a room's snapshot as JSON. Accepts room; defaults to the busiest room.
func (s *Server) HandleState() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.roomSnapshot(r)
		if err != nil {
			s.logger.Debug("HandleState: snapshot unavailable", zap.Error(err))
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, snap, s.logger)
	}
}

// HandleASCII serves a room's snapshot as a text frame. Accepts room, cols, rows and color.
func (s *Server) HandleASCII() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.roomSnapshot(r)
		if err != nil {
			s.logger.Debug("HandleASCII: snapshot unavailable", zap.Error(err))
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		q := r.URL.Query()
		opts := renderOptions(q.Get("cols"), q.Get("rows"), q.Get("color") != "")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(render.Frame(snap, opts))); err != nil {
			s.logger.Debug("HandleASCII: write failed", zap.Error(err))
		}
	}
}

// spawnRequest is the body accepted by HandleSpawn.
type spawnRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleSpawn places an enemy in a room. POST {"x":..,"y":..}, optional ?room=.
func (s *Server) HandleSpawn() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req spawnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		pos := utils.Vec2{X: req.X, Y: req.Y}
		if !pos.IsFinite() {
			http.Error(w, "position must be finite", http.StatusBadRequest)
			return
		}
		room, err := s.lookupRoom(r)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		s.engine.Send(room.RoomPID, game.SpawnEnemyCommand{Position: pos}, nil)
		w.WriteHeader(http.StatusAccepted)
	}
}

// HandleRooms lists the hosted rooms.
func (s *Server) HandleRooms() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		reply, err := s.engine.Ask(s.roomManager, game.GetRoomListRequest{}, s.askTimeout)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		list, ok := reply.(game.RoomListResponse)
		if !ok {
			http.Error(w, fmt.Sprintf("unexpected room list reply %T", reply), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list, s.logger)
	}
}

// HandleHealth reports whether the room manager is running.
func (s *Server) HandleHealth() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		alive := s.engine != nil && s.roomManager != nil && s.engine.Alive(s.roomManager)
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok", "manager": alive}
		if !alive {
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
		}
		writeJSON(w, status, body, s.logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Server: error writing JSON response", zap.Error(err))
	}
}

func renderOptions(cols, rows string, color bool) render.Options {
	opts := render.DefaultOptions()
	if c, err := strconv.Atoi(cols); err == nil && c > 0 && c <= 400 {
		opts.Cols = c
	}
	if r, err := strconv.Atoi(rows); err == nil && r > 0 && r <= 200 {
		opts.Rows = r
	}
	opts.Color = color
	return opts
}
