package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

// mailbox is one connection's ordered outbound queue plus the delivery loop
// that drains it. The queue is unbounded so enqueue never blocks the caller;
// backpressure on a slow peer is bounded instead by the transport's write
// deadline, which fails the sink and tears the connection down.
type mailbox struct {
	connID string
	sink   WriteFunc

	mu     sync.Mutex
	queue  [][]byte
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newMailbox(connID string, sink WriteFunc) *mailbox {
	return &mailbox{
		connID: connID,
		sink:   sink,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (m *mailbox) push(payload []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, payload)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default: // a wake-up is already pending
	}
}

func (m *mailbox) pop() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	payload := m.queue[0]
	m.queue = m.queue[1:]
	return payload, true
}

// close stops the delivery loop and discards anything still queued.
// Idempotent.
func (m *mailbox) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.queue = nil
	m.mu.Unlock()

	close(m.done)
}

// deliver runs as the mailbox's dedicated goroutine. Payloads go out in
// exact push order. A sink failure ends only this loop; the transport's
// reader observes the dead connection and runs the disconnect path.
func (m *mailbox) deliver() {
	for {
		payload, ok := m.pop()
		if !ok {
			select {
			case <-m.done:
				return
			case <-m.wake:
				continue
			}
		}

		if err := m.sink(payload); err != nil {
			zap.L().Debug("broadcast.deliver_failed",
				zap.String("conn_id", m.connID), zap.Error(err))
			return
		}
	}
}
