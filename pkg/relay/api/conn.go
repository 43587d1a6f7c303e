/*
 * Copyright 2025 Qsome Technologies.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qsome/rpa-relay/pkg/models"
)

const closeWriteTimeout = 5 * time.Second

// wsConn adapts a gorilla connection to relay.Conn. gorilla allows only one
// concurrent writer, so all writes are serialized behind a mutex.
type wsConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) WriteEnvelope(env *models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(env)
}

// Close sends a close frame with the given code and reason, then tears the
// connection down. Safe to call more than once; only the first close frame
// is sent.
func (c *wsConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	deadline := time.Now().Add(closeWriteTimeout)
	message := websocket.FormatCloseMessage(code, reason)

	if err := c.conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		return c.conn.Close()
	}

	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
