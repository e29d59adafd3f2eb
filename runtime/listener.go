package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syncbridge/errors"
	"syncbridge/infrastructure/transport"
	"time"
)

const maxAcceptBackoff = time.Second

// Listener accepts TCP connections and hands each one to the hub in its own goroutine.
// There is no admission control: every accepted connection gets a session.
type Listener struct {
	log          *slog.Logger
	hub          *Hub
	address      string
	maxLineBytes int

	mu       sync.Mutex
	listener net.Listener
}

func NewListener(log *slog.Logger, hub *Hub, address string, maxLineBytes int) *Listener {
	return &Listener{log: log, hub: hub, address: address, maxLineBytes: maxLineBytes}
}

// Bind opens the endpoint. A failure here is fatal for the process.
func (l *Listener) Bind() error {
	ln, err := net.Listen("tcp", l.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.address, err)
	}
	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()
	l.log.Info("Chat server listening", "address", ln.Addr().String())
	return nil
}

// Addr is the bound address, useful when binding port 0.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Run accepts until ctx is cancelled. Accept errors are logged and retried with a backoff.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := l.bound()
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.log.Info("Chat server stopped accepting")
				return nil
			}
			backoff = nextBackoff(backoff)
			l.log.Warn("Accept failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		go l.hub.Serve(transport.NewTCPConn(conn, l.maxLineBytes))
	}
}

func (l *Listener) bound() (net.Listener, error) {
	l.mu.Lock()
	ln := l.listener
	l.mu.Unlock()
	if ln != nil {
		return ln, nil
	}
	if err := l.Bind(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listener, nil
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	return min(current*2, maxAcceptBackoff)
}
