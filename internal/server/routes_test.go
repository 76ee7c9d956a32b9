package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/database"
	"github.com/scythe504/quizroom-backend/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	results []internal.GameResult
	err     error
	limit   int
}

func (f *fakeArchive) Health(context.Context) map[string]string {
	return map[string]string{"status": "up"}
}

func (f *fakeArchive) RecordResult(context.Context, internal.GameResult) error { return nil }

func (f *fakeArchive) RecentResults(_ context.Context, limit int) ([]internal.GameResult, error) {
	f.limit = limit
	return f.results, f.err
}

func (f *fakeArchive) Close() {}

type nopConn struct{}

func (nopConn) Send([]byte) error { return nil }
func (nopConn) Close()            {}

func newTestServer(t *testing.T, archive *fakeArchive) (*httptest.Server, *game.Coordinator) {
	t.Helper()
	codes := []string{"K3P9QR"}
	coordinator := game.NewCoordinator(game.Options{
		NewRoomCode: func() string {
			code := codes[0]
			codes = codes[1:]
			return code
		},
	})

	var db database.Service
	if archive != nil {
		db = archive
	}
	srv := httptest.NewServer(New("/ws", coordinator, db).RegisterRoutes())
	t.Cleanup(srv.Close)
	return srv, coordinator
}

func decodeResponse(t *testing.T, resp *http.Response) internal.Response {
	t.Helper()
	defer resp.Body.Close()
	var body internal.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthHandler(t *testing.T) {
	srv, coordinator := newTestServer(t, &fakeArchive{})
	_, err := coordinator.CreateRoom(nopConn{}, internal.CreateRoomCommand{PlayerName: "Host"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "up", body["status"])
	assert.EqualValues(t, 1, body["rooms"])
	assert.Equal(t, map[string]any{"status": "up"}, body["database"])
}

func TestGetRoomHandler(t *testing.T) {
	srv, coordinator := newTestServer(t, nil)
	_, err := coordinator.CreateRoom(nopConn{}, internal.CreateRoomCommand{PlayerName: "Host", MaxPlayers: 4})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/rooms/k3p9qr")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	body := decodeResponse(t, resp)
	assert.Equal(t, http.StatusOK, body.StatusCode)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "K3P9QR", data["code"])
	assert.Equal(t, "waiting", data["status"])
	assert.EqualValues(t, 1, data["players"])
	assert.EqualValues(t, 4, data["maxPlayers"])
	assert.Equal(t, true, data["joinable"])

	resp, err = http.Get(srv.URL + "/rooms/ZZZZZZ")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, decodeResponse(t, resp).StatusCode)
}

func TestGetRoomQRHandler(t *testing.T) {
	srv, coordinator := newTestServer(t, nil)
	_, err := coordinator.CreateRoom(nopConn{}, internal.CreateRoomCommand{PlayerName: "Host"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/rooms/K3P9QR/qr.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	missing, err := http.Get(srv.URL + "/rooms/ZZZZZZ/qr.png")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestGetResultsHandler(t *testing.T) {
	t.Run("archive disabled", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		resp, err := http.Get(srv.URL + "/results")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []any{}, decodeResponse(t, resp).Data)
	})

	t.Run("archive enabled", func(t *testing.T) {
		winner := "p1"
		archive := &fakeArchive{results: []internal.GameResult{{
			Id:         "r1",
			RoomCode:   "K3P9QR",
			Variant:    internal.VariantTrivia,
			FinishedAt: time.Now(),
			WinnerId:   &winner,
		}}}
		srv, _ := newTestServer(t, archive)

		resp, err := http.Get(srv.URL + "/results?limit=5")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data, ok := decodeResponse(t, resp).Data.([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
		assert.Equal(t, "r1", data[0].(map[string]any)["id"])
		assert.Equal(t, 5, archive.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeArchive{})

		resp, err := http.Get(srv.URL + "/results?limit=-2")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("archive failure", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeArchive{err: errors.New("connection refused")})

		resp, err := http.Get(srv.URL + "/results")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/results", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocketRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CREATE_ROOM","playerName":"Ana"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var created internal.RoomCreatedEvent
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, internal.EventRoomCreated, created.Type)
	assert.Equal(t, "K3P9QR", created.Room.Code)
}
