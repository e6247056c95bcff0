package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16 // クライアントごとの送信待ちキューの長さ
)

// RoomHub はルームごとのWebSocket接続を管理します
// スレッドセーフな実装により、複数のgoroutineから同時にアクセス可能です
type RoomHub struct {
	rooms map[uint]*feedRoom // ルームIDをキーとしたルームのマップ
	mu    sync.RWMutex
}

// feedRoom は1つのルームを購読している接続の集合です
type feedRoom struct {
	roomID  uint
	clients map[string]*Client // 接続IDをキーとしたクライアントのマップ
	mu      sync.RWMutex
}

// Client は1つのWebSocket接続を表します
// 書き込みはwritePumpのgoroutineだけが行います
type Client struct {
	id        string // 接続ID（uuid）
	userID    uint   // 匿名なら0
	conn      *websocket.Conn
	room      *feedRoom
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// WebSocketMessage はWebSocketで送受信するメッセージの構造
type WebSocketMessage struct {
	Type    string `json:"type"` // message_created, message_deleted, ping, pong
	Payload any    `json:"payload,omitempty"`
}

// MessagePayload はメッセージ作成・削除時のペイロード
type MessagePayload struct {
	ID       uint      `json:"id"`
	RoomID   uint      `json:"roomId"`
	UserID   uint      `json:"userId"`
	Username string    `json:"username"`
	Body     string    `json:"body,omitempty"`
	Created  time.Time `json:"created"`
}

func NewRoomHub() *RoomHub {
	return &RoomHub{rooms: make(map[uint]*feedRoom)}
}

func newMessagePayload(m models.Message, withBody bool) MessagePayload {
	p := MessagePayload{
		ID:       m.ID,
		RoomID:   m.RoomID,
		UserID:   m.UserID,
		Username: m.User.Username,
		Created:  m.CreatedAt,
	}
	if withBody {
		p.Body = m.Body
	}
	return p
}

// MessageCreated は新しいメッセージをルームの購読者に配信します
func (hub *RoomHub) MessageCreated(m models.Message) {
	hub.broadcast(m.RoomID, WebSocketMessage{Type: "message_created", Payload: newMessagePayload(m, true)})
}

// MessageDeleted は削除されたメッセージをルームの購読者に通知します
func (hub *RoomHub) MessageDeleted(m models.Message) {
	hub.broadcast(m.RoomID, WebSocketMessage{Type: "message_deleted", Payload: newMessagePayload(m, false)})
}

// FeedHandler はルームのライブフィードのWebSocket接続を処理するハンドラー
type FeedHandler struct {
	svc      *service.ForumService
	hub      *RoomHub
	upgrader websocket.Upgrader
}

// NewFeedHandler は新しいFeedHandlerを作成します
// 同一オリジンか、allowedOriginsに含まれるオリジンからの接続のみ受け付けます
func NewFeedHandler(s *service.ForumService, hub *RoomHub, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		svc: s,
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowedOrigins)
			},
		},
	}
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// HandleWebSocket はルームの存在を確認してからWebSocketにアップグレードし、
// 切断されるまでping/pongに応答します
func (h *FeedHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request, me *models.User) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Room(r.Context(), roomID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	var userID uint
	if me != nil {
		userID = me.ID
	}
	client := h.hub.registerClient(roomID, userID, conn)
	go client.writePump()
	log := logging.Ctx(r.Context()).With().Uint("room_id", roomID).Str("client_id", client.id).Logger()
	log.Debug().Msg("websocket connected")
	defer func() {
		h.hub.unregisterClient(client)
		client.close()
		_ = conn.Close()
		log.Debug().Msg("websocket disconnected")
	}()

	// メッセージ受信ループ
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		var msg WebSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("ignoring malformed websocket message")
			continue
		}
		switch msg.Type {
		case "ping":
			if err := client.enqueue(WebSocketMessage{Type: "pong"}); err != nil {
				log.Warn().Err(err).Msg("failed to send pong")
				return
			}
		default:
			log.Debug().Str("type", msg.Type).Msg("unknown websocket message type")
		}
	}
}

// errSlowClient は送信キューが溢れたクライアントを切断したことを表します
var errSlowClient = errors.New("websocket send buffer full")

// enqueue はJSONを送信キューに積みます。ブロックしません
// キューが溢れた場合は接続を切断します
func (c *Client) enqueue(msg WebSocketMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		c.close()
		_ = c.conn.Close()
		return errSlowClient
	}
}

// writePump は送信キューの内容を順に書き込みます
func (c *Client) writePump() {
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				// 読み込みループも終了させる
				c.close()
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// registerClient はクライアントを登録します
// ルームが存在しない場合は新規作成します
func (hub *RoomHub) registerClient(roomID, userID uint, conn *websocket.Conn) *Client {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	room, exists := hub.rooms[roomID]
	if !exists {
		room = &feedRoom{roomID: roomID, clients: make(map[string]*Client)}
		hub.rooms[roomID] = room
	}

	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		room:   room,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	room.mu.Lock()
	room.clients[client.id] = client
	room.mu.Unlock()
	return client
}

// unregisterClient はクライアントの登録を解除します
// ルームが空になった場合はルーム自体を削除します
func (hub *RoomHub) unregisterClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	room := client.room
	room.mu.Lock()
	delete(room.clients, client.id)
	isEmpty := len(room.clients) == 0
	room.mu.Unlock()

	if isEmpty && hub.rooms[room.roomID] == room {
		delete(hub.rooms, room.roomID)
	}
}

// broadcast はルームを購読している全クライアントの送信キューにメッセージを積みます
// 書き込みを待たないので、遅いクライアントが投稿リクエストを止めることはありません
func (hub *RoomHub) broadcast(roomID uint, msg WebSocketMessage) {
	hub.mu.RLock()
	room, ok := hub.rooms[roomID]
	hub.mu.RUnlock()
	if !ok {
		return
	}

	room.mu.RLock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		clients = append(clients, c)
	}
	room.mu.RUnlock()

	for _, c := range clients {
		if err := c.enqueue(msg); err != nil {
			logging.Warn().Err(err).Uint("room_id", roomID).Str("client_id", c.id).Msg("failed to send websocket message")
		}
	}
}

// clientCount はルームに接続中のクライアント数を返します
func (hub *RoomHub) clientCount(roomID uint) int {
	hub.mu.RLock()
	room, ok := hub.rooms[roomID]
	hub.mu.RUnlock()
	if !ok {
		return 0
	}
	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.clients)
}
