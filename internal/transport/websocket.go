// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/binary"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ColumnsPath is the endpoint clients connect to.
const ColumnsPath = "/columns"

const writeWait = 2 * time.Second

// WebSocketSink broadcasts columns as binary frames to every connected
// client. A frame is the column index as a big-endian uint32 followed by the
// column bytes. Frames are dropped when the broadcast queue is full.
type WebSocketSink struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
}

// NewWebSocketSink starts an HTTP server on addr serving ColumnsPath.
func NewWebSocketSink(addr string) *WebSocketSink {
	s := newWebSocketSink()

	mux := http.NewServeMux()
	mux.Handle(ColumnsPath, s)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("websocket sink listening on ws://%s%s", addr, ColumnsPath)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("websocket server error: %v", err)
		}
	}()
	return s
}

func newWebSocketSink() *WebSocketSink {
	s := &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // viewers are served from anywhere
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
	go s.handleBroadcasts()
	return s
}

// ServeHTTP upgrades the request and registers the client.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("upgrade error: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.clientsMu.Unlock()
	logger.Infof("client %s connected, total: %d", conn.RemoteAddr(), n)

	// Clients never send; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *WebSocketSink) drop(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	n := len(s.clients)
	s.clientsMu.Unlock()

	if ok {
		conn.Close()
		logger.Infof("client disconnected, total: %d", n)
	}
}

func (s *WebSocketSink) handleBroadcasts() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.BinaryMessage, frame); err != nil {
					logger.Warnf("error sending to client: %v", err)
					client.Close()
					delete(s.clients, client)
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// Send queues a frame for broadcast.
func (s *WebSocketSink) Send(column int, data []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(column))
	copy(frame[4:], data)

	select {
	case s.broadcast <- frame:
	default:
		logger.Debugf("broadcast queue full, dropping column %d", column)
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (s *WebSocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		logger.Infof("closing websocket sink")
		close(s.done)

		s.clientsMu.Lock()
		for client := range s.clients {
			client.Close()
		}
		s.clients = make(map[*websocket.Conn]bool)
		s.clientsMu.Unlock()

		if s.server != nil {
			err = s.server.Close()
		}
	})
	return err
}

var _ Sink = (*WebSocketSink)(nil)
