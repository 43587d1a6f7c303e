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

package models

import (
	"time"
)

// NodeInfo is the externally visible view of a connected node, served by the
// metadata filter endpoint.
type NodeInfo struct {
	NodeID      string            `json:"node_id"`
	Principal   string            `json:"principal"`
	Metadata    map[string]string `json:"metadata"`
	ConnectedAt time.Time         `json:"connected_at"`
	LastSeen    time.Time         `json:"last_seen"`
}

// ExchangeResult is the completed half of an exchange: either a plain
// response or a file upload, never both.
type ExchangeResult struct {
	Response *ResponseBody `json:"response,omitempty"`
	File     *FileBody     `json:"file,omitempty"`
}

// ExchangeRecord tracks one dispatched command and its eventual result,
// keyed by (node id, request id). CreatedAt and CompletedAt are stamped by
// the store, never by callers.
type ExchangeRecord struct {
	NodeID      string          `json:"node_id"`
	RequestID   string          `json:"request_id"`
	Command     *CommandBody    `json:"command,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Result      *ExchangeResult `json:"result,omitempty"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}

// Completed reports whether a result has been recorded for this exchange.
func (r *ExchangeRecord) Completed() bool {
	return r.Result != nil
}

// Dispatch and poll statuses returned on the HTTP bridge surface.
const (
	StatusCommandSent     = "command_sent"
	StatusNodeUnavailable = "node_unavailable"
	StatusPending         = "pending"
	StatusFileUploaded    = "file_uploaded"
	StatusCompleted       = "completed"
)

// DispatchResponse is the body returned by the command dispatch endpoint.
type DispatchResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Message   string `json:"message,omitempty"`
}

// PollResponse is the body returned by the response poll endpoint. For file
// uploads the file fields are populated and Status is "file_uploaded"; for
// plain results Response carries the node's payload.
type PollResponse struct {
	Status      string        `json:"status"`
	RequestID   string        `json:"request_id"`
	NodeID      string        `json:"node_id,omitempty"`
	Response    *ResponseBody `json:"response,omitempty"`
	Filename    string        `json:"filename,omitempty"`
	FileSize    int64         `json:"file_size,omitempty"`
	MimeType    string        `json:"mime_type,omitempty"`
	FileContent string        `json:"file_content_base64,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
