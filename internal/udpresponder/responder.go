// Package udpresponder answers the request token with a burst of one
// datagram per sequence value.
package udpresponder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"

	"seq-transfer/internal/config"
	"seq-transfer/internal/metrics"
	"seq-transfer/internal/sequence"
)

// pollInterval bounds how long a read blocks before the context is checked
const pollInterval = 100 * time.Millisecond

// Responder serves bursts until its context is cancelled
type Responder struct {
	config  *config.Config
	conn    *net.UDPConn
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// New creates a new Responder. A nil metrics gets a private instance.
func New(config *config.Config, m *metrics.Metrics) *Responder {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Responder{
		config:  config,
		metrics: m,
	}
}

// IsRequest reports whether payload is the request token once trailing
// whitespace is removed
func IsRequest(payload []byte) bool {
	return strings.TrimRightFunc(string(payload), unicode.IsSpace) == sequence.RequestToken
}

// Listen binds the datagram socket. Serve calls it when it was not called before.
func (r *Responder) Listen() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp", r.config.UDPAddr())
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP port %d: %w", r.config.UDPPort, err)
	}

	// Large send buffer so a full burst fits without stalling
	conn.SetWriteBuffer(2 * 1024 * 1024)

	r.conn = conn
	return nil
}

// LocalAddr returns the bound address, or nil before Listen
func (r *Responder) LocalAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Serve receives datagrams and answers every request token with a burst.
// Requests are handled one after another; a request arriving during a burst
// waits in the socket buffer.
func (r *Responder) Serve(ctx context.Context) error {
	if err := r.Listen(); err != nil {
		return err
	}
	defer r.conn.Close()

	log.Printf("[UDP Responder] INFO: Ready to send data on %s", r.conn.LocalAddr())

	buffer := make([]byte, sequence.MaxDatagramSize)

	for {
		select {
		case <-ctx.Done():
			log.Println("[UDP Responder] INFO: Shutting down...")
			return nil
		default:
		}

		// Set read deadline for responsive handling
		r.conn.SetReadDeadline(time.Now().Add(pollInterval))

		n, clientAddr, err := r.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			log.Printf("[UDP Responder] ERROR: Error reading UDP packet: %v", err)
			continue
		}

		if !IsRequest(buffer[:n]) {
			r.metrics.RecordIgnored()
			continue
		}

		r.sendBurst(ctx, clientAddr)
	}
}

// sendBurst writes N datagrams to addr, value i in datagram i
func (r *Responder) sendBurst(ctx context.Context, addr *net.UDPAddr) {
	peer := addr.String()
	r.metrics.RecordRequest(peer)

	startTime := time.Now()
	var sent int64
	payload := make([]byte, 0, 24)

	for i := 1; i <= r.config.Count; i++ {
		if ctx.Err() != nil {
			break
		}

		payload = sequence.AppendLine(payload[:0], i)
		if _, err := r.conn.WriteToUDP(payload, addr); err != nil {
			r.metrics.RecordSendError(peer)
			log.Printf("[UDP Responder] ERROR: Failed to send value %d to %s: %v", i, peer, err)
			break
		}
		sent++
	}

	duration := time.Since(startTime)
	r.metrics.RecordBurst(peer, sent, duration)
	log.Printf("[UDP Responder] INFO: Sent %d datagrams to %s in %v", sent, peer, duration)
}
