package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

const (
	WSTypeHistory = "history"
	WSTypeMessage = "message"
	WSTypeError   = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsOutgoing struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type wsChatInput struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// ChatClient binds one WebSocket connection to its own chat session.
type ChatClient struct {
	Conn        *websocket.Conn
	Send        chan []byte
	Session     *ChatSession
	Limiter     *rate.Limiter
	DefaultLang model.Language
}

func (c *ChatClient) push(msgType string, data interface{}) {
	payload, err := json.Marshal(wsOutgoing{Type: msgType, Data: data})
	if err != nil {
		logger.Log.Error("Failed to encode chat frame", zap.Error(err))
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Log.Warn("Chat client send buffer full, dropping frame", zap.String("userId", c.Session.UserID()))
	}
}

// handle processes one client frame and queues the answer.
func (c *ChatClient) handle(ctx context.Context, raw []byte) {
	var in WSMessage
	if err := json.Unmarshal(raw, &in); err != nil || in.Type != WSTypeMessage {
		c.push(WSTypeError, "unsupported frame")
		return
	}

	var body wsChatInput
	if err := json.Unmarshal(in.Data, &body); err != nil {
		c.push(WSTypeError, "malformed message")
		return
	}

	lang := model.ParseLanguage(body.Language, c.DefaultLang)
	exchange, err := c.Session.Send(ctx, body.Message, lang)
	if err != nil {
		c.push(WSTypeError, err.Error())
		return
	}
	c.push(WSTypeMessage, exchange)
}

func (c *ChatClient) readPump() {
	defer func() {
		close(c.Send)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("userId", c.Session.UserID()))
			}
			return
		}

		if !c.Limiter.Allow() {
			c.push(WSTypeError, "slow down")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		c.handle(ctx, message)
		cancel()
	}
}

func (c *ChatClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeChatWs upgrades the request and starts a fresh chat session for userID.
// The stored history is sent as the first frame.
func ServeChatWs(svc *ChatService, w http.ResponseWriter, r *http.Request, userID string, defaultLang model.Language, perSecond int) error {
	if userID == "" {
		return errors.New("websocket chat requires a user")
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("userId", userID))
		return err
	}
	if perSecond <= 0 {
		perSecond = 5
	}

	client := &ChatClient{
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Session:     svc.NewSession(r.Context(), userID),
		Limiter:     rate.NewLimiter(rate.Limit(perSecond), perSecond*2),
		DefaultLang: defaultLang,
	}
	client.push(WSTypeHistory, client.Session.History())

	go client.writePump()
	go client.readPump()
	return nil
}
