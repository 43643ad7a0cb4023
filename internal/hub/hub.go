package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/metrics"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12 // 4 KB
	sendBufSize = 16
)

// Hub owns the set of live observer connections and fans events out to them.
// The registry is a mutex-protected map keyed by connection id; each
// connection has its own buffered outbound queue drained by a dedicated
// writer goroutine, so delivery to one observer never blocks another.
type Hub struct {
	log       *logger.Logger
	heartbeat time.Duration

	mu    sync.RWMutex
	conns map[string]*connection
}

// New creates a Hub. heartbeat is the liveness sweep interval.
func New(log *logger.Logger, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		log:       log,
		heartbeat: heartbeat,
		conns:     make(map[string]*connection),
	}
}

// Run drives the heartbeat sweep until ctx is cancelled, then closes every
// connection with a proper close frame.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.heartbeat)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.heartbeatSweep()
		}
	}
}

// Serve registers the WebSocket connection as an observer and blocks until it
// closes. The welcome acknowledgement is queued before the connection becomes
// visible to publishers, so it is always delivered first.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := h.register(conn)
	defer h.unregister(c)
	h.readPump(c, conn)
}

// Broadcast delivers an event to every connection subscribed to cat.
// Best-effort: a connection whose outbound queue is full is disconnected
// instead of slowing the caller down.
func (h *Hub) Broadcast(cat Category, msgType string, data any) {
	env := newEnvelope(msgType, data)
	h.publish(cat, env, false)
}

// BroadcastPriority delivers a high-priority event (defect alerts). Instead
// of dropping on a full queue it waits up to the write timeout, so subscribers
// only miss these when their connection is genuinely dead.
func (h *Hub) BroadcastPriority(cat Category, msgType string, data any) {
	env := newEnvelope(msgType, data)
	env.Priority = priorityHigh
	h.publish(cat, env, true)
}

func (h *Hub) publish(cat Category, env Envelope, wait bool) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "err", err, "type", env.Type)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(string(cat)).Inc()

	for _, c := range h.targets(cat) {
		ok := false
		if wait {
			ok = h.enqueueWait(c, payload, writeWait)
		} else {
			ok = h.enqueue(c, payload)
		}
		if !ok {
			metrics.WSSendFailures.Inc()
			h.log.Infow("ws_send_failed", "connection_id", c.id, "category", string(cat))
			h.unregister(c)
		}
	}
}

// Disconnect removes a connection by id. Unknown ids are a no-op.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if ok {
		h.unregister(c)
	}
}

// HandleControlMessage processes an inbound client frame for the given
// connection. Unknown connection ids are ignored.
func (h *Hub) HandleControlMessage(connectionID string, raw []byte) {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if ok {
		h.handleClientMessage(c, raw)
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// ConnectionInfo describes every live connection's subscription state.
func (h *Hub) ConnectionInfo() []ConnectionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ConnectionInfo, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c.info())
	}
	return out
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(t transport) *connection {
	now := time.Now().UTC()
	c := &connection{
		id:          uuid.NewString(),
		sock:        t,
		send:        make(chan []byte, sendBufSize),
		done:        make(chan struct{}),
		interests:   defaultInterests(),
		connectedAt: now,
		lastSeen:    now,
	}

	welcome := newEnvelope(TypeConnectionEstablished, map[string]any{
		"connection_id": c.id,
		"message":       "connected to track monitoring real-time stream",
	})
	if payload, err := json.Marshal(welcome); err == nil {
		c.send <- payload // buffer is empty here, cannot block
	}
	go h.writePump(c)

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.log.Infow("ws_connected", "connection_id", c.id)
	return c
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	_, ok := h.conns[c.id]
	if ok {
		delete(h.conns, c.id)
	}
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Dec()
		h.log.Infow("ws_disconnected", "connection_id", c.id)
	}
	c.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]*connection)
	h.mu.Unlock()

	for _, c := range conns {
		metrics.WSConnections.Dec()
		c.close()
	}
}

func (h *Hub) targets(cat Category) []*connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		if c.matches(cat) {
			out = append(out, c)
		}
	}
	return out
}

// enqueue attempts a non-blocking delivery to one connection's queue.
func (h *Hub) enqueue(c *connection, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// enqueueWait blocks up to timeout for queue space.
func (h *Hub) enqueueWait(c *connection, payload []byte, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	case <-t.C:
		return false
	}
}

// heartbeatSweep sends a liveness probe to every connection and disconnects
// the ones whose queue cannot take it.
func (h *Hub) heartbeatSweep() {
	payload, err := json.Marshal(newEnvelope(TypePing, nil))
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !h.enqueue(c, payload) {
			metrics.WSSendFailures.Inc()
			h.log.Infow("ws_heartbeat_failed", "connection_id", c.id)
			h.unregister(c)
		}
	}
}

// sendPersonal queues a message for a single connection.
func (h *Hub) sendPersonal(c *connection, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "err", err, "type", env.Type)
		return
	}
	if !h.enqueue(c, payload) {
		metrics.WSSendFailures.Inc()
		h.unregister(c)
	}
}

// handleClientMessage processes one inbound frame. Malformed input answers
// with an error envelope; the connection stays open.
func (h *Hub) handleClientMessage(c *connection, raw []byte) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		env := newEnvelope(TypeError, nil)
		env.Message = "invalid JSON payload"
		h.sendPersonal(c, env)
		return
	}

	switch msg.Type {
	case TypePing:
		h.sendPersonal(c, newEnvelope(TypePong, nil))
	case "subscribe":
		c.addInterests(msg.Subscriptions)
		env := newEnvelope(TypeSubscriptionConfirmed, nil)
		env.Subscriptions = c.subscriptionList()
		h.sendPersonal(c, env)
	case "unsubscribe":
		c.removeInterests(msg.Subscriptions)
		env := newEnvelope(TypeUnsubscribeConfirmed, nil)
		env.Subscriptions = c.subscriptionList()
		h.sendPersonal(c, env)
	default:
		// Unrecognized types are echoed back for client-side diagnostics.
		env := newEnvelope(TypeEcho, nil)
		env.OriginalMessage = json.RawMessage(raw)
		h.sendPersonal(c, env)
	}
}

// writePump drains one connection's queue onto the socket. Runs in its own
// goroutine; exits on write failure or when the connection is closed.
func (h *Hub) writePump(c *connection) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.sock.Close()
		h.unregister(c)
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				metrics.WSSendFailures.Inc()
				h.log.Infow("ws_write_failed", "connection_id", c.id, "err", err)
				return
			}
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ping.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames until the connection closes.
func (h *Hub) readPump(c *connection, conn *websocket.Conn) {
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		c.touch()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.touch()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleClientMessage(c, raw)
	}
}
