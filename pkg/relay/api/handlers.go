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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qsome/rpa-relay/pkg/models"
	"github.com/qsome/rpa-relay/pkg/relay"
)

// handleDispatch accepts a command for a node and returns immediately. The
// body is the command payload; the request id comes from the path.
func (s *APIServer) handleDispatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	nodeID := vars["node_id"]
	requestID := vars["request_id"]

	var cmd models.CommandBody

	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, "Invalid command payload", http.StatusBadRequest)
		return
	}

	err := s.core.Dispatch(nodeID, requestID, &cmd)
	if errors.Is(err, relay.ErrNodeUnavailable) {
		s.logger.Warn().
			Str("node_id", nodeID).
			Str("request_id", requestID).
			Msg("Dispatch target not connected")

		s.writeJSONResponse(w, http.StatusOK, models.DispatchResponse{
			Status:    models.StatusNodeUnavailable,
			RequestID: requestID,
			Message:   fmt.Sprintf("Node %s is not currently connected", nodeID),
		})

		return
	}

	s.writeJSONResponse(w, http.StatusAccepted, models.DispatchResponse{
		Status:    models.StatusCommandSent,
		RequestID: requestID,
	})
}

// handlePoll returns the consumed result for a request, or pending. A
// completed record is deleted on read; repeated polls before completion are
// safe.
func (s *APIServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	nodeID := vars["node_id"]
	requestID := vars["request_id"]

	record, state := s.core.Poll(nodeID, requestID)
	if state == relay.PollPending {
		s.writeJSONResponse(w, http.StatusAccepted, models.PollResponse{
			Status:    models.StatusPending,
			RequestID: requestID,
			Message:   "Response not yet received",
		})

		return
	}

	s.writeJSONResponse(w, http.StatusOK, buildPollResponse(record))
}

// buildPollResponse shapes a consumed exchange uniformly: file uploads
// surface the file fields, plain results carry the node's response body.
func buildPollResponse(record *models.ExchangeRecord) models.PollResponse {
	if record.Result.File != nil {
		file := record.Result.File

		return models.PollResponse{
			Status:      models.StatusFileUploaded,
			RequestID:   record.RequestID,
			NodeID:      record.NodeID,
			Filename:    file.Filename,
			FileSize:    file.FileSize,
			MimeType:    file.MimeType,
			FileContent: file.FileContent,
			Message:     fmt.Sprintf("File '%s' uploaded by node %s", file.Filename, file.UploadedByNodeID),
		}
	}

	response := record.Result.Response
	status := response.Status

	if status == "" {
		status = models.StatusCompleted
	}

	return models.PollResponse{
		Status:    status,
		RequestID: record.RequestID,
		NodeID:    record.NodeID,
		Response:  response,
	}
}

// handleNodeRelease force-closes the controller bound to a node. The node
// connection itself stays up.
func (s *APIServer) handleNodeRelease(w http.ResponseWriter, r *http.Request) {
	nodeID := mux.Vars(r)["node_id"]

	if err := s.core.Release(r.Context(), nodeID); err != nil {
		writeError(w, fmt.Sprintf("Node %s not found or not bound", nodeID), http.StatusNotFound)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Node %s released", nodeID),
	})
}

// handleNodeFilter lists connected nodes whose metadata matches all query
// parameters. api_key is reserved for the auth middleware.
func (s *APIServer) handleNodeFilter(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)

	for key, values := range r.URL.Query() {
		if key == "api_key" || len(values) == 0 {
			continue
		}

		filters[key] = values[0]
	}

	s.writeJSONResponse(w, http.StatusOK, s.core.FilterNodes(filters))
}
