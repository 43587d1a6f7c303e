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
	"time"

	"github.com/qsome/rpa-relay/pkg/models"
)

// The bridge facade translates the synchronous request/poll surface used by
// orchestrators onto the asynchronous socket paths.

// Dispatch sends a command to nodeID and returns immediately. The request
// id in the path is authoritative and overwrites any id in the body. When
// the node is absent ErrNodeUnavailable is returned and no exchange record
// is created.
func (r *Relay) Dispatch(nodeID, requestID string, cmd *models.CommandBody) error {
	if cmd == nil {
		cmd = &models.CommandBody{}
	}

	cmd.RequestID = requestID

	return r.dispatchCommand(nodeID, cmd)
}

// PollState describes the outcome of a poll.
type PollState int

const (
	// PollPending means no completed result exists yet. A record that was
	// evicted, or never opened, is indistinguishable from one still in
	// flight; callers apply their own timeout.
	PollPending PollState = iota
	// PollCompleted means the result was returned and the record deleted.
	PollCompleted
)

// Poll consumes the completed exchange for (nodeID, requestID). A completed
// record is returned exactly once; an incomplete one is left intact.
func (r *Relay) Poll(nodeID, requestID string) (*models.ExchangeRecord, PollState) {
	record := r.exchanges.Consume(nodeID, requestID)
	if record == nil {
		return nil, PollPending
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Str("request_id", requestID).
		Msg("Exchange consumed by poll")

	return record, PollCompleted
}

// Release administratively force-closes the controller bound to nodeID.
// The node connection itself is not touched. ErrNoBoundController is
// returned when no controller is bound.
func (r *Relay) Release(ctx context.Context, nodeID string) error {
	binding := r.controllers.Take(nodeID)
	if binding == nil {
		return ErrNoBoundController
	}

	if err := binding.Conn.Close(CloseReleased, "released"); err != nil {
		r.logger.Debug().
			Err(err).
			Str("node_id", nodeID).
			Msg("Controller close on release")
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Msg("Controller released")

	r.publishLifecycle(ctx, models.NodeLifecycleEventData{
		NodeID:    nodeID,
		State:     models.ControllerDetached,
		Timestamp: time.Now(),
	})

	return nil
}

// FilterNodes lists connected nodes whose metadata matches all given
// key/value pairs. Pure read; no mutation.
func (r *Relay) FilterNodes(filters map[string]string) []models.NodeInfo {
	return r.registry.Filter(filters)
}
