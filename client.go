/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan ServerMessage

	// Owned by the hub's run loop.
	session session
	dropped bool

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan ServerMessage, buffer),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

func pongWait(cfg *Config) time.Duration {
	return cfg.pingPeriod * 10 / 9
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Str("remote", realIP(r)).Msg("websocket upgrade failed")
			return
		}

		c := newClient(conn, cfg.sendBuffer)
		if !h.register(c) {
			_ = conn.Close()
			return
		}

		logf(cfg, "SOCKET: Connection %s opened from %s", c.id, realIP(r))

		go c.writePump(cfg)
		c.readPump(cfg, h)
	}
}

func (c *Client) readPump(cfg *Config, h *Hub) {
	defer func() {
		h.unregister(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait(cfg)))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait(cfg)))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "SOCKET: Connection %s read error: %v", c.id, err)
			}
			return
		}

		if !h.deliver(c.id, data) {
			return
		}
	}
}

func (c *Client) writePump(cfg *Config) {
	ticker := time.NewTicker(cfg.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
