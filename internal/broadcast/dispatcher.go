package broadcast

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// WriteFunc hands one serialized payload to a connection's transport. It may
// block on network I/O; only the owning delivery loop ever calls it.
type WriteFunc func(payload []byte) error

// Dispatcher keeps one mailbox per connection and guarantees per-recipient
// FIFO delivery. There is no ordering across recipients: every delivery loop
// runs independently, so one stalled peer cannot hold anyone else up.
type Dispatcher struct {
	mu        sync.RWMutex
	mailboxes map[string]*mailbox
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{mailboxes: make(map[string]*mailbox)}
}

// Register creates the connection's mailbox and starts its delivery loop.
// Re-registering an ID replaces (and stops) the previous mailbox.
func (d *Dispatcher) Register(connID string, sink WriteFunc) {
	mb := newMailbox(connID, sink)

	d.mu.Lock()
	if old, ok := d.mailboxes[connID]; ok {
		old.close()
	}
	d.mailboxes[connID] = mb
	d.mu.Unlock()

	go mb.deliver()
}

// Unregister stops the delivery loop and discards undelivered payloads.
// Unknown IDs are a no-op, so it is safe to call from racing cleanup paths.
func (d *Dispatcher) Unregister(connID string) {
	d.mu.Lock()
	mb, ok := d.mailboxes[connID]
	delete(d.mailboxes, connID)
	d.mu.Unlock()

	if ok {
		mb.close()
	}
}

// Enqueue appends the payload to the recipient's queue without blocking. A
// missing mailbox means the recipient already disconnected; the payload is
// dropped silently.
func (d *Dispatcher) Enqueue(connID string, payload []byte) {
	d.mu.RLock()
	mb, ok := d.mailboxes[connID]
	d.mu.RUnlock()

	if ok {
		mb.push(payload)
	}
}

// Broadcast marshals the payload once and enqueues it to every recipient.
// Implements game.Broadcaster.
func (d *Dispatcher) Broadcast(recipients []string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("broadcast.marshal", zap.Error(err))
		return
	}
	for _, connID := range recipients {
		d.Enqueue(connID, data)
	}
}
