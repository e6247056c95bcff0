package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connPair はサーバー側とクライアント側のWebSocket接続を返します
func connPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	ch := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ch <- c
	}))
	t.Cleanup(srv.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	resp.Body.Close()
	server = <-ch
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return server, client
}

func TestBroadcast_DeliversInOrder(t *testing.T) {
	hub := NewRoomHub()
	serverConn, clientConn := connPair(t)
	c := hub.registerClient(7, 1, serverConn)
	go c.writePump()
	t.Cleanup(c.close)

	hub.MessageCreated(models.Message{ID: 1, RoomID: 7, Body: "first", User: models.User{Username: "alice"}})
	hub.MessageDeleted(models.Message{ID: 1, RoomID: 7, Body: "first"})
	// 別ルームの購読者には届かない
	hub.MessageCreated(models.Message{ID: 2, RoomID: 8, Body: "elsewhere"})

	var got []WebSocketMessage
	for i := 0; i < 2; i++ {
		require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := clientConn.ReadMessage()
		require.NoError(t, err)
		var m WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &m))
		got = append(got, m)
	}
	assert.Equal(t, "message_created", got[0].Type)
	assert.Equal(t, "message_deleted", got[1].Type)
}

func TestBroadcast_DoesNotWaitForSlowClient(t *testing.T) {
	hub := NewRoomHub()
	serverConn, _ := connPair(t)
	// writePumpを動かさないので送信キューは消費されない
	c := hub.registerClient(7, 1, serverConn)

	start := time.Now()
	for i := 0; i < sendBuffer+5; i++ {
		hub.MessageCreated(models.Message{ID: uint(i + 1), RoomID: 7, Body: "hello"})
	}
	assert.Less(t, time.Since(start), writeWait)

	select {
	case <-c.done:
	default:
		t.Fatal("client with a full send buffer should be disconnected")
	}
	assert.Len(t, c.send, sendBuffer)
}

func TestRoomHub_UnregisterRemovesEmptyRoom(t *testing.T) {
	hub := NewRoomHub()
	a, _ := connPair(t)
	b, _ := connPair(t)

	ca := hub.registerClient(3, 1, a)
	cb := hub.registerClient(3, 2, b)
	assert.Equal(t, 2, hub.clientCount(3))

	hub.unregisterClient(ca)
	assert.Equal(t, 1, hub.clientCount(3))
	hub.unregisterClient(cb)
	assert.Equal(t, 0, hub.clientCount(3))
	assert.NotContains(t, hub.rooms, uint(3))
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://forum.example.com"}
	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", "http://localhost:8080", true},
		{"allowed origin", "https://forum.example.com", true},
		{"foreign origin", "https://evil.example.com", false},
		{"malformed", "://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://localhost:8080/room/1/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originAllowed(r, allowed))
		})
	}
}
