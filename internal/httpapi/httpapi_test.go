package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betteruno/internal/protocol"
	"betteruno/internal/room"
)

func testServer(t *testing.T) (*httptest.Server, *room.Registry) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	registry := room.NewRegistry(log)

	mux := http.NewServeMux()
	New(log, registry).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, registry
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListRooms(t *testing.T) {
	srv, registry := testServer(t)
	created, err := registry.CreateRoom("Friday Uno", "Alice", 4, "secret")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rooms []protocol.Room `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, created.Room.ID, body.Rooms[0].ID)
	assert.True(t, body.Rooms[0].HasPassword, "passwords are flagged, never exposed")
}
