package runtime

import (
	"sync"
	"syncbridge/errors"
)

// outbox is the FIFO of lines waiting for one session's writer goroutine.
// Deliveries only append to it, so a slow reader never holds up the broadcaster.
// limit caps the live lines pending while the writer is busy; 0 disables the cap.
type outbox struct {
	mu     sync.Mutex
	lines  []string
	live   int
	limit  int
	sealed bool
	closed bool
	ready  chan struct{}
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit, ready: make(chan struct{}, 1)}
}

// push queues a line. force skips the limit, it is used for the join replay
// whose size is the whole history.
func (o *outbox) push(line string, force bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.sealed {
		return errors.ErrPeerClosed
	}
	if !force {
		if o.limit > 0 && o.live >= o.limit {
			return errors.ErrPeerOverflow
		}
		o.live++
	}
	o.lines = append(o.lines, line)

	select {
	case o.ready <- struct{}{}:
	default:
	}
	return nil
}

// take blocks until lines are pending and hands all of them over.
// It returns false once the outbox is closed, or sealed and empty.
func (o *outbox) take() ([]string, bool) {
	for {
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return nil, false
		}
		if len(o.lines) > 0 {
			batch := o.lines
			o.lines = nil
			o.live = 0
			o.mu.Unlock()
			return batch, true
		}
		if o.sealed {
			o.mu.Unlock()
			return nil, false
		}
		o.mu.Unlock()
		<-o.ready
	}
}

func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines)
}

// seal refuses new lines but keeps the pending ones for the writer.
func (o *outbox) seal() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sealed = true
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// close drops the pending lines and releases the writer.
func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.lines = nil
	o.live = 0
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
