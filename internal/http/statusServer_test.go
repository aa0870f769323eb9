package http

import (
	"context"
	"encoding/json"
	"klyra/internal/api"
	"klyra/internal/models"
	"klyra/internal/presence"
	"klyra/internal/ws"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusServer_StartShutdown(t *testing.T) {
	store := presence.New()
	store.Upsert(models.User{ID: "u1", Name: "Alice", Nickname: "al", Status: "online"})
	s := NewStatusServer(ws.NewHub(nil, 0), store, "127.0.0.1:38473", nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Start()
	}()

	client := &http.Client{Timeout: 500 * time.Millisecond}
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := client.Get("http://127.0.0.1:38473/api/health")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 50*time.Millisecond)

	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	_ = resp.Body.Close()
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.Users)

	resp, err := client.Get("http://127.0.0.1:38473/api/users/missing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = client.Post("http://127.0.0.1:38473/api/users", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestStatusServer_BindFailure(t *testing.T) {
	s := NewStatusServer(ws.NewHub(nil, 0), presence.New(), "127.0.0.1:not-a-port", nil)
	require.Error(t, s.Start())
}
