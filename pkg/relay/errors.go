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
	"errors"
)

var (
	// ErrDuplicateNodeID is returned when a node connects with an id that
	// already has a live session. The existing session is untouched.
	ErrDuplicateNodeID = errors.New("node id already registered")

	// ErrNodeNotConnected is returned when a controller attaches to a node
	// with no live session.
	ErrNodeNotConnected = errors.New("node not connected")

	// ErrAlreadyBound is returned when a controller attaches to a node that
	// already has a bound controller.
	ErrAlreadyBound = errors.New("controller already bound to node")

	// ErrNodeUnavailable is returned when a command targets a node id absent
	// from the registry.
	ErrNodeUnavailable = errors.New("node unavailable")

	// ErrNotActiveController is returned when a controller acts on a node it
	// is not bound to.
	ErrNotActiveController = errors.New("not the active controller for node")

	// ErrNoBoundController is returned by Release when no controller is
	// bound to the node.
	ErrNoBoundController = errors.New("no controller bound to node")
)

// WebSocket close codes used for connection-level failures. Distinct codes
// let callers tell "already active elsewhere" apart from auth failure.
const (
	CloseAuthMissing      = 4001
	CloseAuthRejected     = 4003
	ClosePeerDisconnected = 4004
	CloseDuplicateNode    = 4006
	CloseBindingRejected  = 4007
	CloseReleased         = 1000
)
