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

package relay

import (
	"github.com/qsome/rpa-relay/pkg/models"
)

// HandleNodeEnvelope routes one inbound message from a node connection.
// Message-level failures never terminate the connection.
func (r *Relay) HandleNodeEnvelope(session *NodeSession, env *models.Envelope) {
	switch env.Type {
	case models.TypeNodeResponse:
		r.handleNodeResponse(session, env.Response)
	case models.TypeFileUpload:
		r.handleFileUpload(session, env.File)
	case models.TypeImageFrame:
		r.handleImageFrame(session, env)
	case models.TypeStatusProbe:
		r.handleStatusProbe(session.NodeID, session.Conn)
	default:
		r.logger.Warn().
			Str("node_id", session.NodeID).
			Str("type", env.Type).
			Msg("Dropped message with unknown type")
	}
}

// HandleControllerEnvelope routes one inbound message from a controller
// connection bound (or attempting to act) on nodeID.
func (r *Relay) HandleControllerEnvelope(nodeID string, conn Conn, env *models.Envelope) {
	switch env.Type {
	case models.TypeCommand:
		r.handleControllerCommand(nodeID, conn, env.Command)
	case models.TypeStatusProbe:
		r.handleStatusProbe(nodeID, conn)
	default:
		r.logger.Warn().
			Str("node_id", nodeID).
			Str("type", env.Type).
			Msg("Dropped controller message with unknown type")
	}
}

func (r *Relay) handleNodeResponse(session *NodeSession, response *models.ResponseBody) {
	if response.NodeID == "" {
		response.NodeID = session.NodeID
	}

	// A node may report metadata piggybacked on a response, typically the
	// first one after connect.
	if len(response.Metadata) > 0 {
		r.registry.UpdateMetadata(session.NodeID, response.Metadata)
	}

	r.exchanges.Complete(session.NodeID, response.RequestID, &models.ExchangeResult{Response: response})

	r.logger.Info().
		Str("node_id", session.NodeID).
		Str("request_id", response.RequestID).
		Str("status", response.Status).
		Msg("Recorded node response")
}

func (r *Relay) handleFileUpload(session *NodeSession, file *models.FileBody) {
	if file.UploadedByNodeID == "" {
		file.UploadedByNodeID = session.NodeID
	}

	r.exchanges.Complete(session.NodeID, file.RequestID, &models.ExchangeResult{File: file})

	r.logger.Info().
		Str("node_id", session.NodeID).
		Str("request_id", file.RequestID).
		Str("filename", file.Filename).
		Int64("file_size", file.FileSize).
		Msg("Recorded file upload")
}

// handleImageFrame forwards a frame to the bound controller. Frames are
// perishable: with no controller bound the frame is dropped, never buffered.
func (r *Relay) handleImageFrame(session *NodeSession, env *models.Envelope) {
	controller := r.controllers.Bound(session.NodeID)
	if controller == nil {
		r.logger.Debug().
			Str("node_id", session.NodeID).
			Msg("No controller bound; dropped image frame")

		return
	}

	if err := controller.WriteEnvelope(env); err != nil {
		r.logger.Warn().
			Err(err).
			Str("node_id", session.NodeID).
			Msg("Failed to forward image frame to controller")
	}
}

func (r *Relay) handleStatusProbe(nodeID string, conn Conn) {
	r.registry.Touch(nodeID)

	if err := conn.WriteEnvelope(&models.Envelope{Type: models.TypeStatusAck}); err != nil {
		r.logger.Debug().
			Err(err).
			Str("node_id", nodeID).
			Msg("Failed to acknowledge status probe")
	}
}

// handleControllerCommand relays a command from the bound controller through
// the same dispatch path the HTTP bridge uses, opening an exchange so the
// result is pollable.
func (r *Relay) handleControllerCommand(nodeID string, conn Conn, cmd *models.CommandBody) {
	if !r.controllers.IsBound(nodeID, conn) {
		r.logger.Warn().
			Str("node_id", nodeID).
			Str("request_id", cmd.RequestID).
			Msg("Command from controller not bound to node")

		if err := conn.WriteEnvelope(models.NewErrorEnvelope("not the active controller for node")); err != nil {
			r.logger.Debug().Err(err).Str("node_id", nodeID).Msg("Error envelope write failed")
		}

		return
	}

	if err := r.dispatchCommand(nodeID, cmd); err != nil {
		if writeErr := conn.WriteEnvelope(models.NewErrorEnvelope("node unavailable")); writeErr != nil {
			r.logger.Debug().Err(writeErr).Str("node_id", nodeID).Msg("Error envelope write failed")
		}
	}
}
