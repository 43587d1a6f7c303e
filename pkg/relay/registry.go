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
	"sync"
	"time"

	"github.com/qsome/rpa-relay/pkg/models"
)

// NodeSession is the live state of one connected node. It is created on a
// successful authenticated connect and owned exclusively by the registry.
type NodeSession struct {
	NodeID      string
	Conn        Conn
	Principal   models.Principal
	Metadata    map[string]string
	ConnectedAt time.Time
	LastSeen    time.Time
}

// NodeRegistry holds at most one live session per node id.
type NodeRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*NodeSession
	now      func() time.Time
}

func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		sessions: make(map[string]*NodeSession),
		now:      time.Now,
	}
}

// Register inserts a session for nodeID. It fails with ErrDuplicateNodeID if
// a session already exists; the existing session is not displaced.
func (r *NodeRegistry) Register(nodeID string, conn Conn, principal models.Principal, metadata map[string]string) (*NodeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[nodeID]; exists {
		return nil, ErrDuplicateNodeID
	}

	if metadata == nil {
		metadata = make(map[string]string)
	}

	now := r.now()
	session := &NodeSession{
		NodeID:      nodeID,
		Conn:        conn,
		Principal:   principal,
		Metadata:    metadata,
		ConnectedAt: now,
		LastSeen:    now,
	}
	r.sessions[nodeID] = session

	return session, nil
}

// Unregister removes the session for nodeID. Removal is idempotent. The
// given conn must be the registered one; a stale disconnect from a rejected
// duplicate connection must not evict the live session.
func (r *NodeRegistry) Unregister(nodeID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[nodeID]
	if !exists || session.Conn != conn {
		return false
	}

	delete(r.sessions, nodeID)

	return true
}

// Lookup returns the live session for nodeID, or nil when absent.
func (r *NodeRegistry) Lookup(nodeID string) *NodeSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[nodeID]
}

// Touch stamps the session's last-seen time, called on status probes.
func (r *NodeRegistry) Touch(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[nodeID]; exists {
		session.LastSeen = r.now()
	}
}

// UpdateMetadata merges node-reported metadata into the session.
func (r *NodeRegistry) UpdateMetadata(nodeID string, metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[nodeID]
	if !exists {
		return
	}

	for k, v := range metadata {
		session.Metadata[k] = v
	}
}

// Filter returns the info of all connected nodes whose metadata matches
// every given key/value pair. An empty filter matches all nodes.
func (r *NodeRegistry) Filter(filters map[string]string) []models.NodeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.NodeInfo, 0)

	for _, session := range r.sessions {
		if !metadataMatches(session.Metadata, filters) {
			continue
		}

		info := models.NodeInfo{
			NodeID:      session.NodeID,
			Principal:   session.Principal.Name,
			Metadata:    make(map[string]string, len(session.Metadata)),
			ConnectedAt: session.ConnectedAt,
			LastSeen:    session.LastSeen,
		}
		for k, v := range session.Metadata {
			info.Metadata[k] = v
		}

		matched = append(matched, info)
	}

	return matched
}

// Count returns the number of live node sessions.
func (r *NodeRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func metadataMatches(metadata, filters map[string]string) bool {
	for k, v := range filters {
		if metadata[k] != v {
			return false
		}
	}

	return true
}
