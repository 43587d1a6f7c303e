package relay

import (
	"context"
	"sync"

	"github.com/qsome/rpa-relay/pkg/models"
)

// fakeConn records writes and closes for assertions.
type fakeConn struct {
	mu        sync.Mutex
	envelopes []*models.Envelope
	writeErr  error
	closed    bool
	closeCode int
	reason    string
	addr      string
}

func newFakeConn() *fakeConn {
	return &fakeConn{addr: "127.0.0.1:9999"}
}

func (c *fakeConn) WriteEnvelope(env *models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}

	c.envelopes = append(c.envelopes, env)

	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.closeCode = code
	c.reason = reason

	return nil
}

func (c *fakeConn) RemoteAddr() string {
	return c.addr
}

func (c *fakeConn) sent() []*models.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*models.Envelope, len(c.envelopes))
	copy(out, c.envelopes)

	return out
}

func (c *fakeConn) isClosed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed, c.closeCode
}

// capturingPublisher records lifecycle events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []models.NodeLifecycleEventData
}

func (p *capturingPublisher) PublishNodeLifecycleEvent(_ context.Context, data models.NodeLifecycleEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, data)

	return nil
}

func (p *capturingPublisher) captured() []models.NodeLifecycleEventData {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.NodeLifecycleEventData, len(p.events))
	copy(out, p.events)

	return out
}
