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
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	srHttp "github.com/qsome/rpa-relay/pkg/http"
	"github.com/qsome/rpa-relay/pkg/models"
	"github.com/qsome/rpa-relay/pkg/relay"
)

// handleNodeSocket accepts a node's persistent connection. The HTTP
// connection is upgraded first so auth failures can be reported with
// distinct close codes instead of breaking the handshake.
func (s *APIServer) handleNodeSocket(w http.ResponseWriter, r *http.Request) {
	nodeID := mux.Vars(r)["node_id"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("node_id", nodeID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade node connection")

		return
	}

	ws := newWSConn(conn)

	token := srHttp.BearerToken(r)
	if token == "" {
		s.logger.Warn().
			Str("node_id", nodeID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Node connection missing credentials")

		_ = ws.Close(relay.CloseAuthMissing, "missing credentials")

		return
	}

	principal, err := s.validator.VerifyToken(r.Context(), token)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("node_id", nodeID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Node credential rejected")

		_ = ws.Close(relay.CloseAuthRejected, "authentication rejected")

		return
	}

	session, err := s.core.RegisterNode(r.Context(), nodeID, ws, *principal, parseNodeMetadata(r))
	if err != nil {
		_ = ws.Close(relay.CloseDuplicateNode, "node id already active")
		return
	}

	defer func() {
		// Registry and binding cleanup happens synchronously in the close
		// path so a reconnect for the same id is not wrongly rejected.
		s.core.UnregisterNode(context.Background(), nodeID, ws)
		_ = conn.Close()
	}()

	s.readLoop(conn, nodeID, func(env *models.Envelope) {
		s.core.HandleNodeEnvelope(session, env)
	})
}

// handleControlSocket accepts a controller connection and binds it to a
// node's control channel.
func (s *APIServer) handleControlSocket(w http.ResponseWriter, r *http.Request) {
	nodeID := mux.Vars(r)["node_id"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("node_id", nodeID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade controller connection")

		return
	}

	ws := newWSConn(conn)

	token := srHttp.BearerToken(r)
	if token == "" {
		_ = ws.Close(relay.CloseAuthMissing, "missing credentials")
		return
	}

	if _, err := s.validator.VerifyToken(r.Context(), token); err != nil {
		s.logger.Warn().
			Err(err).
			Str("node_id", nodeID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Controller credential rejected")

		_ = ws.Close(relay.CloseAuthRejected, "authentication rejected")

		return
	}

	if err := s.core.AttachController(r.Context(), nodeID, ws); err != nil {
		reason := "node not connected"
		if errors.Is(err, relay.ErrAlreadyBound) {
			reason = "controller already bound"
		}

		_ = ws.Close(relay.CloseBindingRejected, reason)

		return
	}

	defer func() {
		s.core.DetachController(context.Background(), nodeID, ws)
		_ = conn.Close()
	}()

	if err := ws.WriteEnvelope(&models.Envelope{
		Type:    models.TypeReady,
		Message: "connected to relay for node " + nodeID,
	}); err != nil {
		s.logger.Warn().
			Err(err).
			Str("node_id", nodeID).
			Msg("Failed to send ready to controller")

		return
	}

	s.readLoop(conn, nodeID, func(env *models.Envelope) {
		s.core.HandleControllerEnvelope(nodeID, ws, env)
	})
}

// readLoop pumps inbound messages through the router until the connection
// drops. Malformed envelopes are logged and dropped; the connection stays
// open.
func (s *APIServer) readLoop(conn *websocket.Conn, nodeID string, route func(*models.Envelope)) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().
					Err(err).
					Str("node_id", nodeID).
					Msg("Connection closed")
			}

			return
		}

		if msgType != websocket.TextMessage {
			s.logger.Warn().
				Str("node_id", nodeID).
				Int("message_type", msgType).
				Msg("Dropped non-text frame")

			continue
		}

		env, err := models.ParseEnvelope(data)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("node_id", nodeID).
				Msg("Dropped malformed envelope")

			continue
		}

		route(env)
	}
}

// parseNodeMetadata reads the optional X-Node-Metadata header, a flat JSON
// object of string key/value pairs reported by the node at connect.
func parseNodeMetadata(r *http.Request) map[string]string {
	raw := r.Header.Get("X-Node-Metadata")
	if raw == "" {
		return nil
	}

	metadata := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}

	return metadata
}
