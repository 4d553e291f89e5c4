package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

// ConnectionManager fans rendered board states out to WebSocket clients.
// It is the synchronizer's view in gateway mode.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock
	actions  Actions

	broadcastCh chan boardFrame

	// latest is replayed to every new connection
	latestMu sync.RWMutex
	latest   boardFrame
}

// boardFrame is an encoded board message and the generation it carries
type boardFrame struct {
	generation uint64
	data       []byte
}

// Connection represents a WebSocket connection to a browser
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	// newest generation queued on Send, guarded by Manager.mu
	sentGeneration uint64
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	CommandTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		CommandTimeout:  10 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// the board UI is served from the LAN
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. Client commands are
// rejected until a Service binds it to the board's actions.
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       clock,
		broadcastCh: make(chan boardFrame, 64),
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("connection manager shutting down")
			return
		case frame := <-cm.broadcastCh:
			cm.handleBroadcast(frame)
		}
	}
}

// Render implements synchronizer.View. It never blocks.
func (cm *ConnectionManager) Render(u synchronizer.Update) {
	data, err := json.Marshal(newBoardMessage(u, cm.clock.Now()))
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal board message")
		return
	}

	frame := boardFrame{generation: u.Generation, data: data}
	cm.latestMu.Lock()
	cm.latest = frame
	cm.latestMu.Unlock()

	select {
	case cm.broadcastCh <- frame:
	default:
		log.Warn().Uint64("generation", u.Generation).Msg("broadcast channel full, dropping board update")
	}
}

// Latest returns the most recent board message, if any
func (cm *ConnectionManager) Latest() []byte {
	return cm.latestFrame().data
}

func (cm *ConnectionManager) latestFrame() boardFrame {
	cm.latestMu.RLock()
	defer cm.latestMu.RUnlock()
	return cm.latest
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 16),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// queued under the lock so no older broadcast can overtake it
	if latest := cm.latestFrame(); latest.data != nil {
		conn.Send <- latest.data
		conn.sentGeneration = latest.generation
	}
	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
	}
}

// handleBroadcast is only called from Start. sentGeneration is written here
// under the read lock and elsewhere only under the write lock.
func (cm *ConnectionManager) handleBroadcast(frame boardFrame) {
	var slow []*Connection

	cm.mu.RLock()
	total := len(cm.connections)
	for conn := range cm.connections {
		if frame.generation <= conn.sentGeneration {
			continue
		}
		select {
		case conn.Send <- frame.data:
			conn.sentGeneration = frame.generation
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().Int("connections", total).Msg("board update broadcasted")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		cm.unregisterConnection(conn)
	}
}

// ConnectionStats summarizes active connections
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
}

func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return ConnectionStats{TotalConnections: len(cm.connections)}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads client commands until the connection closes
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage runs a command sent over the socket. Results arrive
// as the next board broadcast; only rejected commands are answered directly.
func (c *Connection) handleClientMessage(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.reject("", fmt.Errorf("%w: %v", ErrInvalidCommand, err))
		return
	}
	if c.Manager.actions == nil {
		c.reject(cmd.Action, fmt.Errorf("%w: commands are disabled", ErrInvalidCommand))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.CommandTimeout)
	defer cancel()

	log.Debug().Str("connection_id", c.ID).Str("action", string(cmd.Action)).Msg("received client command")
	if err := cmd.Dispatch(ctx, c.Manager.actions); err != nil {
		c.reject(cmd.Action, err)
	}
}

func (c *Connection) reject(action Action, err error) {
	data, _ := json.Marshal(ErrorMessage{Type: MessageTypeError, Action: action, Message: err.Error()})

	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()
	if !c.Manager.connections[c] {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("dropping error message for slow connection")
	}
}
