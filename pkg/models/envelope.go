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
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope types exchanged over node and controller WebSocket channels.
const (
	TypeCommand      = "command"
	TypeNodeResponse = "node_response"
	TypeFileUpload   = "file_upload"
	TypeImageFrame   = "image_frame"
	TypeStatusProbe  = "status_probe"
	TypeStatusAck    = "status_ack"
	TypeError        = "error"
	TypeReady        = "ready"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the wire-level message wrapper. Exactly one payload field is
// populated, selected by Type.
type Envelope struct {
	Type      string        `json:"type"`
	Command   *CommandBody  `json:"command,omitempty"`
	Response  *ResponseBody `json:"response,omitempty"`
	File      *FileBody     `json:"file,omitempty"`
	FrameData string        `json:"frame_data,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// CommandBody is the payload dispatched to a node. Params are opaque to the
// relay and passed through unmodified.
type CommandBody struct {
	RequestID   string                 `json:"requestId"`
	CommandType string                 `json:"commandType"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

// ResponseBody is a node's reply to a previously dispatched command.
type ResponseBody struct {
	RequestID       string            `json:"requestId"`
	Status          string            `json:"status"`
	ResponsePayload interface{}       `json:"responsePayload,omitempty"`
	Error           string            `json:"error,omitempty"`
	Traceback       string            `json:"traceback,omitempty"`
	NodeID          string            `json:"nodeId,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// FileBody is a node response variant carrying an uploaded file.
type FileBody struct {
	RequestID        string `json:"requestId"`
	Filename         string `json:"filename"`
	FileContent      string `json:"fileContent"`
	MimeType         string `json:"mimeType"`
	FileSize         int64  `json:"fileSize"`
	UploadedByNodeID string `json:"uploadedByNodeId"`
}

// ParseEnvelope decodes and validates a wire message. It returns
// ErrMalformedEnvelope when the JSON cannot be decoded or the payload
// required by the declared type is missing. Unknown types decode cleanly;
// the router decides how to treat them.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope

	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}

	switch env.Type {
	case TypeCommand:
		if env.Command == nil || env.Command.RequestID == "" {
			return nil, fmt.Errorf("%w: command payload missing requestId", ErrMalformedEnvelope)
		}
	case TypeNodeResponse:
		if env.Response == nil || env.Response.RequestID == "" {
			return nil, fmt.Errorf("%w: response payload missing requestId", ErrMalformedEnvelope)
		}
	case TypeFileUpload:
		if env.File == nil || env.File.RequestID == "" {
			return nil, fmt.Errorf("%w: file payload missing requestId", ErrMalformedEnvelope)
		}
	case TypeImageFrame:
		if env.FrameData == "" {
			return nil, fmt.Errorf("%w: image_frame missing frame_data", ErrMalformedEnvelope)
		}
	}

	return &env, nil
}

// NewCommandEnvelope wraps a command body for transmission to a node.
func NewCommandEnvelope(cmd *CommandBody) *Envelope {
	return &Envelope{Type: TypeCommand, Command: cmd}
}

// NewErrorEnvelope builds an error report sent back on the same connection.
func NewErrorEnvelope(message string) *Envelope {
	return &Envelope{Type: TypeError, Message: message}
}
