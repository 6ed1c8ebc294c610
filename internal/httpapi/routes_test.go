package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/hub"
	"github.com/DoyleJ11/domainguessr-backend/internal/leaderboard"
)

func newServer(t *testing.T, lobbies directory.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(SetupRoutes(Deps{
		Lobbies:          lobbies,
		Scores:           leaderboard.NewMemoryStore(),
		LeaderboardLimit: 2,
		Log:              zaptest.NewLogger(t),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLobbyRoutes(t *testing.T) {
	stores := map[string]func(t *testing.T) directory.Store{
		"hub": func(t *testing.T) directory.Store {
			return hub.NewHub(context.Background(), time.Hour)
		},
		"redis": func(t *testing.T) directory.Store {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return directory.NewRedisStore(rdb, time.Hour)
		},
	}

	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, mk(t))

			resp := post(t, srv.URL+"/create-lobby", map[string]string{"lobbyCode": "abc123", "peerId": "host-1"})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			var created createLobbyResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
			assert.Equal(t, "ABC123", created.LobbyCode)

			resp = post(t, srv.URL+"/create-lobby", map[string]string{"lobbyCode": "ABC123", "peerId": "host-2"})
			assert.Equal(t, http.StatusConflict, resp.StatusCode)

			resp = get(t, srv.URL+"/join-lobby/abc123")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var entry directory.Entry
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
			assert.Equal(t, "host-1", entry.PeerID)

			resp = get(t, srv.URL+"/join-lobby/NOPE00")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestCreateLobby_BadRequests(t *testing.T) {
	srv := newServer(t, hub.NewHub(context.Background(), time.Hour))

	resp, err := http.Post(srv.URL+"/create-lobby", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/create-lobby", map[string]string{"lobbyCode": "ABC123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/create-lobby", map[string]string{"lobbyCode": "A-1", "peerId": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLobby_ServerPicksCode(t *testing.T) {
	srv := newServer(t, hub.NewHub(context.Background(), time.Hour))

	resp := post(t, srv.URL+"/create-lobby", map[string]string{"peerId": "host", "address": "ws://10.0.0.5:9000/peer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created createLobbyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NoError(t, directory.ValidateCode(created.LobbyCode))

	resp = get(t, srv.URL+"/join-lobby/"+created.LobbyCode)
	var entry directory.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, "ws://10.0.0.5:9000/peer", entry.Address)
}

func TestDirectoryClient_AgainstRoutes(t *testing.T) {
	srv := newServer(t, hub.NewHub(context.Background(), time.Hour))
	c := directory.NewClient(srv.URL)
	ctx := context.Background()

	code, err := c.CreateLobby(ctx, "", directory.Entry{PeerID: "host", Address: "ws://h:1/peer"})
	require.NoError(t, err)

	_, err = c.CreateLobby(ctx, code, directory.Entry{PeerID: "other"})
	assert.ErrorIs(t, err, directory.ErrCodeTaken)

	e, err := c.JoinLobby(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "ws://h:1/peer", e.Address)

	_, err = c.JoinLobby(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestLeaderboardRoutes(t *testing.T) {
	srv := newServer(t, hub.NewHub(context.Background(), time.Hour))

	for _, s := range []submitScoreRequest{{"ada", 300}, {"bob", 900}, {"cy", 100}} {
		resp := post(t, srv.URL+"/leaderboard", s)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := post(t, srv.URL+"/leaderboard", submitScoreRequest{Name: "", Score: 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, srv.URL+"/leaderboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var top []leaderboard.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].Name)
	assert.Equal(t, "ada", top[1].Name)

	resp = get(t, srv.URL+"/leaderboard?limit=3")
	top = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	assert.Len(t, top, 3)

	resp = get(t, srv.URL+"/leaderboard?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, hub.NewHub(context.Background(), time.Hour))
	resp := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
