package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID int64 = 7
		if r.URL.Query().Get("user") == "8" {
			userID = 8
		}
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesEveryConnectionOfTheMember(t *testing.T) {
	hub, srv := startHub(t)
	phone := dial(t, srv, "user=7")
	laptop := dial(t, srv, "user=7")
	other := dial(t, srv, "user=8")

	require.Eventually(t, func() bool {
		return hub.Connections(7) == 2 && hub.Connections(8) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(7, []byte(`{"type":"DUE_SOON"}`))

	for _, conn := range []*websocket.Conn{phone, laptop} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"DUE_SOON"}`, string(msg))
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "user=7")
	require.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://library.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://library.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
