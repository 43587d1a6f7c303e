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
	"context"

	"github.com/qsome/rpa-relay/pkg/models"
)

// Conn is the relay's view of one live WebSocket connection. Writes must be
// safe for concurrent use; implementations serialize them internally.
type Conn interface {
	// WriteEnvelope pushes a message to the peer. Fire-and-forget: a failed
	// write is reported to the caller but never retried by the relay.
	WriteEnvelope(env *models.Envelope) error
	// Close terminates the connection with a close code and reason. It is
	// safe to call more than once.
	Close(code int, reason string) error
	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}

// EventPublisher receives node lifecycle events. Implementations must not
// block the caller; publishing failures are logged and dropped.
type EventPublisher interface {
	PublishNodeLifecycleEvent(ctx context.Context, data models.NodeLifecycleEventData) error
}
