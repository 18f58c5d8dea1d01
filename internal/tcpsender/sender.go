// Package tcpsender streams the sequence to a single TCP client.
package tcpsender

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"seq-transfer/internal/config"
	"seq-transfer/internal/sequence"
)

// Sender accepts exactly one connection and writes the sequence to it
type Sender struct {
	config   *config.Config
	listener net.Listener
	mu       sync.Mutex
}

// New creates a new Sender
func New(config *config.Config) *Sender {
	return &Sender{config: config}
}

// Listen binds the listening socket. Serve calls it when it was not called before.
func (s *Sender) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.TCPAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.TCPAddr(), err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Sender) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve waits for one client, streams 1..N to it and closes both the
// connection and the listener regardless of the outcome
func (s *Sender) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	defer s.listener.Close()

	log.Printf("[TCP Sender] INFO: Waiting for a connection on %s...", s.listener.Addr())

	// Unblock Accept when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-done:
		}
	}()

	conn, err := s.listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to accept connection: %w", err)
	}
	defer func() {
		conn.Close()
		log.Println("[TCP Sender] INFO: Connection closed.")
	}()

	log.Printf("[TCP Sender] INFO: Connected by %s", conn.RemoteAddr())

	if err := sequence.Write(conn, s.config.Count); err != nil {
		return fmt.Errorf("failed to send sequence to %s: %w", conn.RemoteAddr(), err)
	}
	return nil
}
