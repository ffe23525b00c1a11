// File: test/helpers_test.go
package test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/crypt/game"
	"golang.org/x/net/websocket"
)

// GetRooms fetches /rooms from the test server.
func GetRooms(t *testing.T, baseURL string) (game.RoomListResponse, error) {
	t.Helper()
	var list game.RoomListResponse
	resp, err := http.Get(baseURL + "/rooms")
	if err != nil {
		return list, err
	}
	defer resp.Body.Close()
	err = json.NewDecoder(resp.Body).Decode(&list)
	return list, err
}

// ReadWsJSONMessage reads a JSON message from the WebSocket with a timeout.
func ReadWsJSONMessage(t *testing.T, ws *websocket.Conn, timeout time.Duration, v interface{}) error {
	t.Helper()
	if ws == nil {
		return errors.New("websocket connection is nil")
	}

	if err := ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
			return io.EOF
		}
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	err := websocket.JSON.Receive(ws, v)
	_ = ws.SetReadDeadline(time.Time{})
	return err
}

// ReadUntil reads frames until match accepts one, returning its messageType and raw body.
func ReadUntil(t *testing.T, ws *websocket.Conn, timeout time.Duration, match func(kind string, raw json.RawMessage) bool) (string, json.RawMessage, error) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var raw json.RawMessage
		if err := ReadWsJSONMessage(t, ws, time.Until(deadline), &raw); err != nil {
			return "", nil, err
		}
		var env struct {
			MessageType string `json:"messageType"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", nil, err
		}
		if match(env.MessageType, raw) {
			return env.MessageType, raw, nil
		}
	}
	return "", nil, fmt.Errorf("no matching frame within %v", timeout)
}

// GetState fetches /state for room from the test server. An empty room means the busiest one.
func GetState(t *testing.T, baseURL, room string) (game.Snapshot, error) {
	t.Helper()
	resp, err := http.Get(baseURL + "/state?room=" + url.QueryEscape(room))
	if err != nil {
		return game.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return game.Snapshot{}, fmt.Errorf("state: status %d", resp.StatusCode)
	}
	var snap game.Snapshot
	err = json.NewDecoder(resp.Body).Decode(&snap)
	return snap, err
}

// PostSpawn asks the server to place an enemy in room.
func PostSpawn(t *testing.T, baseURL, room string, x, y float64) error {
	t.Helper()
	body := fmt.Sprintf(`{"x":%g,"y":%g}`, x, y)
	resp, err := http.Post(baseURL+"/spawn?room="+url.QueryEscape(room), "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("spawn: status %d", resp.StatusCode)
	}
	return nil
}
