package models

import (
	"time"
)

// CloudEvent is the envelope used for lifecycle events published to
// JetStream, following the CloudEvents 1.0 attribute names.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// NodeLifecycleEventData is the payload for node connect/disconnect and
// controller attach/detach events.
type NodeLifecycleEventData struct {
	NodeID     string            `json:"node_id"`
	State      string            `json:"state"`
	Principal  string            `json:"principal,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Node lifecycle states carried in NodeLifecycleEventData.
const (
	NodeStateConnected    = "connected"
	NodeStateDisconnected = "disconnected"
	ControllerAttached    = "controller_attached"
	ControllerDetached    = "controller_detached"
)
