// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package control exposes adapter parameters over a WebSocket so a remote
// user interface can change them while audio is playing.
//
// Clients connect to /control and send messages such as
//
//	{"field": "speed", "value": 1.25}
//
// Valid messages are delivered on Events for the audio goroutine to apply.
// Invalid ones are answered with {"error": "..."}. Every Broadcast is sent
// to all clients as a State, and new clients receive the latest one.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	speedy "github.com/alttagil/speedy-go"
	"github.com/alttagil/speedy-go/internal/log"
)

// Path is the WebSocket endpoint.
const Path = "/control"

const (
	eventQueue = 64
	sendQueue  = 16
	writeWait  = 5 * time.Second
)

// State is the parameter snapshot sent to clients.
type State struct {
	Speed           float32 `json:"speed"`
	Pitch           float32 `json:"pitch"`
	Rate            float32 `json:"rate"`
	Volume          float32 `json:"volume"`
	Nonlinear       bool    `json:"nonlinear"`
	NonlinearFactor float32 `json:"nonlinear_factor"`
	Latency         float64 `json:"latency"`
}

// Reply is sent back for a rejected message.
type Reply struct {
	Error string `json:"error"`
}

type message struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

type client struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan any, sendQueue),
		done: make(chan struct{}),
	}
}

// enqueue queues v for the writer without blocking. It reports false when
// the queue is full.
func (c *client) enqueue(v any) bool {
	select {
	case c.send <- v:
		return true
	default:
		return false
	}
}

// writeLoop is the only writer to conn.
func (c *client) writeLoop() {
	defer c.stop()
	for {
		select {
		case <-c.done:
			return
		case v := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(v); err != nil {
				log.Debugf("control: error sending to %s: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Server is the control endpoint.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	events   chan speedy.Event
	server   *http.Server

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *State
	closed  bool
}

// New returns a Server that will listen on addr once started.
func New(addr string) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The endpoint is meant for local control panels.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		events:  make(chan speedy.Event, eventQueue),
		clients: make(map[*client]struct{}),
	}
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

// Events delivers validated events. The audio goroutine drains it with
// speedy.Adapter.ApplyPending.
func (s *Server) Events() <-chan speedy.Event {
	return s.events
}

// Handler returns the HTTP handler serving Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	log.Infof("control: listening on ws://%s%s", s.addr, Path)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("control: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, resolved once Start succeeded.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("control: upgrade error: %v", err)
		return
	}
	c := newClient(conn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.enqueue(s.last)
	}
	n := len(s.clients)
	s.mu.Unlock()
	log.Debugf("control: client %s connected, total: %d", conn.RemoteAddr(), n)

	go c.writeLoop()
	defer s.drop(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleMessage(data); err != nil {
			log.Debugf("control: rejected %s: %v", data, err)
			if !c.enqueue(Reply{Error: err.Error()}) {
				return
			}
		}
	}
}

// handleMessage validates one message and queues its event.
func (s *Server) handleMessage(data []byte) error {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}
	ev := speedy.Event{Field: speedy.Field(m.Field)}
	if m.Value != nil {
		ev.Value = *m.Value
	} else if ev.Field != speedy.FieldReset {
		return fmt.Errorf("missing value for %q", m.Field)
	}

	// Apply checks the field and its range without touching real state.
	scratch := speedy.DefaultParams()
	if err := scratch.Apply(ev); err != nil {
		return err
	}

	select {
	case s.events <- ev:
		return nil
	default:
		return errors.New("too many pending changes")
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	c.stop()
	log.Debugf("control: client disconnected, total: %d", n)
}

// Broadcast queues the current parameters for every client and returns
// without waiting for the network. A client whose queue is full is
// disconnected.
func (s *Server) Broadcast(p speedy.Params, latency float64) {
	st := &State{
		Speed:           p.Speed,
		Pitch:           p.Pitch,
		Rate:            p.Rate,
		Volume:          p.Volume,
		Nonlinear:       p.Nonlinear,
		NonlinearFactor: p.NonlinearFactor,
		Latency:         latency,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = st
	for c := range s.clients {
		if !c.enqueue(st) {
			log.Warnf("control: client %s is not reading, disconnecting", c.conn.RemoteAddr())
			delete(s.clients, c)
			c.stop()
		}
	}
}

// Close disconnects every client and stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		c.stop()
	}
	clear(s.clients)
	s.mu.Unlock()

	return s.server.Close()
}
