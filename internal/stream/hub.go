package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"arena_ai/internal/combat"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
}

// inputMessage is what a viewer may send back: the player's frame input.
type inputMessage struct {
	Type  string      `json:"type"`
	Move  [2]float64  `json:"move"`
	Block bool        `json:"block"`
	Aim   *[2]float64 `json:"aim"`
	Press []int       `json:"press"`
}

// Hub fans snapshots out to websocket viewers and collects player input.
type Hub struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[uint64]*client
	nextID  uint64

	inputs chan combat.PlayerInput
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log, clients: map[uint64]*client{}, inputs: make(chan combat.PlayerInput, 16)}
}

// Inputs delivers decoded player input. Excess input is dropped.
func (h *Hub) Inputs() <-chan combat.PlayerInput { return h.inputs }

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast encodes v once and queues it for every viewer. Slow viewers
// miss frames instead of stalling the tick loop.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	return nil
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.nextID++
	c := &client{id: h.nextID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Info().Uint64("client", c.id).Str("remote", r.RemoteAddr).Msg("viewer connected")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.drop(c)
		c.conn.Close()
		h.log.Info().Uint64("client", c.id).Msg("viewer disconnected")
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in inputMessage
		if err := json.Unmarshal(msg, &in); err != nil || in.Type != "input" {
			continue
		}
		pi := combat.PlayerInput{
			Move:  combat.Vec2{X: in.Move[0], Y: in.Move[1]},
			Block: in.Block,
			Press: in.Press,
		}
		if in.Aim != nil {
			pi.Aim, pi.HasAim = combat.Vec2{X: in.Aim[0], Y: in.Aim[1]}, true
		}
		select {
		case h.inputs <- pi:
		default:
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
