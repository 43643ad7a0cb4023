package hub

import (
	"sort"
	"sync"
	"time"
)

// transport is the subset of *websocket.Conn the writer pump needs. Kept
// narrow so delivery behavior is testable without a network socket.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// connection is one live observer. The hub addresses it only by its id, never
// by the socket handle.
type connection struct {
	id   string
	sock transport

	send chan []byte
	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	interests   map[Category]struct{}
	connectedAt time.Time
	lastSeen    time.Time
}

// ConnectionInfo is a read-only view over a connection's subscription state.
type ConnectionInfo struct {
	ConnectionID  string    `json:"connection_id"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastSeen      time.Time `json:"last_seen"`
	Subscriptions []string  `json:"subscriptions"`
}

// defaultInterests subscribes a fresh connection to every category.
func defaultInterests() map[Category]struct{} {
	return map[Category]struct{}{
		CategorySensorData:   {},
		CategoryDefectAlert:  {},
		CategorySystemStatus: {},
	}
}

func (c *connection) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *connection) matches(cat Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.interests[cat]
	return ok
}

func (c *connection) addInterests(categories []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range categories {
		c.interests[Category(cat)] = struct{}{}
	}
}

func (c *connection) removeInterests(categories []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range categories {
		delete(c.interests, Category(cat))
	}
}

func (c *connection) subscriptionList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.interests))
	for cat := range c.interests {
		out = append(out, string(cat))
	}
	sort.Strings(out)
	return out
}

func (c *connection) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now().UTC()
	c.mu.Unlock()
}

func (c *connection) info() ConnectionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := make([]string, 0, len(c.interests))
	for cat := range c.interests {
		subs = append(subs, string(cat))
	}
	sort.Strings(subs)
	return ConnectionInfo{
		ConnectionID:  c.id,
		ConnectedAt:   c.connectedAt,
		LastSeen:      c.lastSeen,
		Subscriptions: subs,
	}
}
