package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsPongTimeout   = 60 * time.Second
	wsPingInterval  = 54 * time.Second // must stay under wsPongTimeout
	wsMaxInboundLen = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced on the REST routes; the stream is read-mostly
	},
}

// wsInbound is the only shape clients may send: subscribe acknowledgements
// and application-level pings. Everything else is ignored.
type wsInbound struct {
	Type string `json:"type"`
}

// handleWebSocket upgrades the connection and attaches it to the hub so the
// client receives pipeline stage lifecycle events as they happen.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}
	s.wsHub.Register(client)

	// Greet with the model chain so dashboards can label the stream.
	client.send <- WSMessage{
		Type: "connected",
		Data: map[string]any{
			"version": Version,
			"models":  s.gw.ModelChain(),
		},
	}

	go client.writeLoop(conn)
	go client.readLoop(conn)
}

// readLoop drains inbound frames. Clients only ever subscribe or ping; a
// read error of any kind tears the client down.
func (c *WSClient) readLoop(conn *websocket.Conn) {
	defer func() {
		c.hub.Unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(wsMaxInboundLen)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("api: websocket read: %v", err)
			}
			return
		}

		switch in.Type {
		case "subscribe":
			c.send <- WSMessage{Type: "subscribed"}
		case "ping":
			c.send <- WSMessage{Type: "pong"}
		}
	}
}

// writeLoop serializes hub messages onto the wire and keeps the connection
// alive with protocol pings.
func (c *WSClient) writeLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

			// Drain whatever queued up while we were writing.
			for i := len(c.send); i > 0; i-- {
				if err := conn.WriteJSON(<-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
