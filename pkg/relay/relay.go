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

// Package relay implements the broker core: node registry, controller
// bindings, command/response correlation, and message routing between the
// WebSocket and HTTP surfaces.
package relay

import (
	"context"
	"time"

	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/models"
)

// Relay owns the shared connection state and coordinates the registry,
// binding table, and exchange store. All state is in-memory; nothing
// survives a process restart.
type Relay struct {
	registry    *NodeRegistry
	controllers *ControllerTable
	exchanges   *ExchangeStore
	logger      logger.Logger
	publisher   EventPublisher
	ctx         context.Context
}

// New creates a relay core. ctx bounds the lifetime of the background
// janitor; cancel it at shutdown.
func New(ctx context.Context, cfg *Config, log logger.Logger, options ...func(*Relay)) *Relay {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Relay{
		registry:    NewNodeRegistry(),
		controllers: NewControllerTable(),
		exchanges: NewExchangeStore(
			time.Duration(cfg.ExchangeTTL),
			time.Duration(cfg.CleanupInterval),
			log,
		),
		logger: log.WithComponent("relay"),
		ctx:    ctx,
	}

	for _, o := range options {
		o(r)
	}

	return r
}

// WithEventPublisher attaches a lifecycle event publisher.
func WithEventPublisher(p EventPublisher) func(*Relay) {
	return func(r *Relay) {
		r.publisher = p
	}
}

// Registry exposes the node registry for read-side consumers.
func (r *Relay) Registry() *NodeRegistry {
	return r.registry
}

// Exchanges exposes the exchange store, used by tests and diagnostics.
func (r *Relay) Exchanges() *ExchangeStore {
	return r.exchanges
}

// RegisterNode adds a live node session. A duplicate node id is rejected
// and the existing session is left untouched. The exchange janitor starts
// lazily on the first successful registration.
func (r *Relay) RegisterNode(ctx context.Context, nodeID string, conn Conn, principal models.Principal, metadata map[string]string) (*NodeSession, error) {
	session, err := r.registry.Register(nodeID, conn, principal, metadata)
	if err != nil {
		r.logger.Warn().
			Str("node_id", nodeID).
			Str("remote_addr", conn.RemoteAddr()).
			Msg("Rejected duplicate node registration")

		return nil, err
	}

	r.exchanges.StartJanitor(r.ctx)

	r.logger.Info().
		Str("node_id", nodeID).
		Str("principal", principal.Name).
		Str("remote_addr", conn.RemoteAddr()).
		Msg("Node connected and registered")

	r.publishLifecycle(ctx, models.NodeLifecycleEventData{
		NodeID:     nodeID,
		State:      models.NodeStateConnected,
		Principal:  principal.Name,
		Metadata:   metadata,
		RemoteAddr: conn.RemoteAddr(),
		Timestamp:  time.Now(),
	})

	return session, nil
}

// UnregisterNode removes the session for nodeID if conn is the registered
// connection. Any bound controller is notified and closed with a distinct
// peer-disconnected reason in the same step.
func (r *Relay) UnregisterNode(ctx context.Context, nodeID string, conn Conn) {
	if !r.registry.Unregister(nodeID, conn) {
		return
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Msg("Node disconnected")

	if binding := r.controllers.Take(nodeID); binding != nil {
		if err := binding.Conn.WriteEnvelope(models.NewErrorEnvelope("node disconnected")); err != nil {
			r.logger.Warn().
				Err(err).
				Str("node_id", nodeID).
				Msg("Failed to notify controller of node disconnect")
		}

		if err := binding.Conn.Close(ClosePeerDisconnected, "node disconnected"); err != nil {
			r.logger.Debug().
				Err(err).
				Str("node_id", nodeID).
				Msg("Controller close after node disconnect")
		}
	}

	r.publishLifecycle(ctx, models.NodeLifecycleEventData{
		NodeID:    nodeID,
		State:     models.NodeStateDisconnected,
		Timestamp: time.Now(),
	})
}

// AttachController binds conn as the controller for nodeID. The binding is
// reserved before the registry is consulted so that a concurrent node
// disconnect either sees the reservation (and closes it) or we observe the
// absent node and roll back. Exactly one of two racing attach calls wins.
func (r *Relay) AttachController(ctx context.Context, nodeID string, conn Conn) error {
	if _, err := r.controllers.Attach(nodeID, conn); err != nil {
		r.logger.Warn().
			Str("node_id", nodeID).
			Str("remote_addr", conn.RemoteAddr()).
			Msg("Rejected controller attach: already bound")

		return err
	}

	if r.registry.Lookup(nodeID) == nil {
		r.controllers.Detach(nodeID, conn)

		r.logger.Warn().
			Str("node_id", nodeID).
			Str("remote_addr", conn.RemoteAddr()).
			Msg("Rejected controller attach: node not connected")

		return ErrNodeNotConnected
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Str("remote_addr", conn.RemoteAddr()).
		Msg("Controller attached")

	r.publishLifecycle(ctx, models.NodeLifecycleEventData{
		NodeID:     nodeID,
		State:      models.ControllerAttached,
		RemoteAddr: conn.RemoteAddr(),
		Timestamp:  time.Now(),
	})

	return nil
}

// DetachController clears the binding for nodeID when conn owns it. The
// node connection is unaffected.
func (r *Relay) DetachController(ctx context.Context, nodeID string, conn Conn) {
	if !r.controllers.Detach(nodeID, conn) {
		return
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Msg("Controller detached")

	r.publishLifecycle(ctx, models.NodeLifecycleEventData{
		NodeID:    nodeID,
		State:     models.ControllerDetached,
		Timestamp: time.Now(),
	})
}

// dispatchCommand opens an exchange and pushes the command to the node.
// The push is fire-and-forget: a write failure after a successful lookup is
// logged but not propagated, preserving the immediate-return contract.
func (r *Relay) dispatchCommand(nodeID string, cmd *models.CommandBody) error {
	session := r.registry.Lookup(nodeID)
	if session == nil {
		return ErrNodeUnavailable
	}

	r.exchanges.Open(nodeID, cmd.RequestID, cmd)

	if err := session.Conn.WriteEnvelope(models.NewCommandEnvelope(cmd)); err != nil {
		r.logger.Warn().
			Err(err).
			Str("node_id", nodeID).
			Str("request_id", cmd.RequestID).
			Msg("Command push failed after lookup")

		return nil
	}

	r.logger.Info().
		Str("node_id", nodeID).
		Str("request_id", cmd.RequestID).
		Str("command_type", cmd.CommandType).
		Msg("Command sent to node")

	return nil
}

func (r *Relay) publishLifecycle(ctx context.Context, data models.NodeLifecycleEventData) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.PublishNodeLifecycleEvent(ctx, data); err != nil {
		r.logger.Warn().
			Err(err).
			Str("node_id", data.NodeID).
			Str("state", data.State).
			Msg("Failed to publish lifecycle event")
	}
}
