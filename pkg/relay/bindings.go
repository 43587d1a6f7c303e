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
)

// ControllerBinding relates one controller connection to one node id.
type ControllerBinding struct {
	NodeID  string
	Conn    Conn
	BoundAt time.Time
}

// ControllerTable holds at most one controller binding per node id.
type ControllerTable struct {
	mu       sync.RWMutex
	bindings map[string]*ControllerBinding
	now      func() time.Time
}

func NewControllerTable() *ControllerTable {
	return &ControllerTable{
		bindings: make(map[string]*ControllerBinding),
		now:      time.Now,
	}
}

// Attach binds conn to nodeID. It fails with ErrAlreadyBound when a binding
// exists. Node presence is checked by the relay before and after this call;
// the table itself only enforces uniqueness.
func (t *ControllerTable) Attach(nodeID string, conn Conn) (*ControllerBinding, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.bindings[nodeID]; exists {
		return nil, ErrAlreadyBound
	}

	binding := &ControllerBinding{
		NodeID:  nodeID,
		Conn:    conn,
		BoundAt: t.now(),
	}
	t.bindings[nodeID] = binding

	return binding, nil
}

// Detach removes the binding for nodeID, but only when conn is the bound
// controller. A disconnect from an unrelated controller must not clear
// someone else's binding.
func (t *ControllerTable) Detach(nodeID string, conn Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	binding, exists := t.bindings[nodeID]
	if !exists || binding.Conn != conn {
		return false
	}

	delete(t.bindings, nodeID)

	return true
}

// Take removes and returns the binding for nodeID regardless of owner. Used
// when the node side goes away or an administrative release is requested.
func (t *ControllerTable) Take(nodeID string) *ControllerBinding {
	t.mu.Lock()
	defer t.mu.Unlock()

	binding, exists := t.bindings[nodeID]
	if !exists {
		return nil
	}

	delete(t.bindings, nodeID)

	return binding
}

// Bound returns the controller connection bound to nodeID, or nil.
func (t *ControllerTable) Bound(nodeID string) Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	binding, exists := t.bindings[nodeID]
	if !exists {
		return nil
	}

	return binding.Conn
}

// IsBound reports whether conn is the controller currently bound to nodeID.
func (t *ControllerTable) IsBound(nodeID string, conn Conn) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	binding, exists := t.bindings[nodeID]

	return exists && binding.Conn == conn
}
