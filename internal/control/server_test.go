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

package control

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speedy "github.com/alttagil/speedy-go"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New("127.0.0.1:0")
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = s.Close()
	})
	return s, srv
}

func TestDeliversValidEvents(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{"field": "speed", "value": 1.25}))
	require.NoError(t, conn.WriteJSON(map[string]any{"field": "reset"}))

	for _, want := range []speedy.Event{
		{Field: speedy.FieldSpeed, Value: 1.25},
		{Field: speedy.FieldReset},
	} {
		select {
		case ev := <-s.Events():
			assert.Equal(t, want, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("no event for %v", want)
		}
	}
}

func TestRejectsInvalidMessages(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)

	for _, msg := range []string{
		`not json`,
		`{"field":"tempo","value":1}`,
		`{"field":"speed","value":9}`,
		`{"field":"volume"}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		var reply Reply
		require.NoError(t, conn.ReadJSON(&reply))
		assert.NotEmpty(t, reply.Error, msg)
	}
	assert.Empty(t, s.Events())
}

func TestBroadcast(t *testing.T) {
	s, srv := newTestServer(t)
	p := speedy.DefaultParams()
	p.Speed = 1.5
	s.Broadcast(p, 0.02)

	conn := dial(t, srv)
	var st State
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, float32(1.5), st.Speed)
	assert.Equal(t, 0.02, st.Latency)

	p.Nonlinear = true
	s.Broadcast(p, 0.14)
	require.NoError(t, conn.ReadJSON(&st))
	assert.True(t, st.Nonlinear)
	assert.Equal(t, 0.14, st.Latency)
}

func TestStartAndClose(t *testing.T) {
	s := New("127.0.0.1:0")
	require.NoError(t, s.Start())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+Path, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, s.Close())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func (s *Server) numClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func TestBroadcastDoesNotWaitForStalledClient(t *testing.T) {
	s, srv := newTestServer(t)
	dial(t, srv) // never reads
	require.Eventually(t, func() bool { return s.numClients() == 1 }, 5*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100000; i++ {
			s.Broadcast(speedy.DefaultParams(), 0.02)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a client that does not read")
	}
	assert.Eventually(t, func() bool { return s.numClients() == 0 }, 5*time.Second, 10*time.Millisecond)

	p := speedy.DefaultParams()
	p.Speed = 2
	s.Broadcast(p, 0.02)
	conn := dial(t, srv)
	var st State
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, float32(2), st.Speed)
}
