// Package udprequester asks the responder for the sequence and collects the
// datagram burst it sends back.
package udprequester

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"seq-transfer/internal/config"
	"seq-transfer/internal/sequence"
)

// Result is what arrived before the receive loop ended
type Result struct {
	Values    []int // parsed values in arrival order
	Datagrams int
	TimedOut  bool // true when the idle timeout ended the loop

	tracker *sequence.Tracker
}

// Stats returns how many values arrived, how many were duplicates and how
// many arrived after a larger value
func (r *Result) Stats() (incoming, duplicate, reordered uint32) {
	return r.tracker.GetStats()
}

// Missing counts the values of 1..n that never arrived
func (r *Result) Missing(n int) int {
	return r.tracker.Missing(n)
}

// Requester sends one request and reads the reply burst
type Requester struct {
	config *config.Config
}

// New creates a new Requester
func New(config *config.Config) *Requester {
	return &Requester{config: config}
}

// Fetch sends the request token and reads datagrams until an empty datagram
// arrives or no datagram arrives for the idle timeout. The timeout is the
// normal end of a burst and is not returned as an error.
func (q *Requester) Fetch(ctx context.Context) (*Result, error) {
	raddr, err := net.ResolveUDPAddr("udp", q.config.UDPAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve responder address: %w", err)
	}

	// Unconnected socket, so an absent responder shows up as a timeout
	// rather than an ICMP refusal
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	defer conn.Close()

	conn.SetReadBuffer(2 * 1024 * 1024)

	// Wake a blocked read when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if _, err := conn.WriteToUDP([]byte(sequence.RequestToken), raddr); err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", raddr, err)
	}

	result := &Result{
		Values:  make([]int, 0, q.config.Count),
		tracker: sequence.NewTracker(),
	}
	buffer := make([]byte, sequence.MaxDatagramSize)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		conn.SetReadDeadline(q.deadline(ctx))

		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Println("[UDP Requester] INFO: Timeout reached.")
				result.TimedOut = true
				return result, nil
			}
			return result, fmt.Errorf("failed to read datagram: %w", err)
		}

		if n == 0 {
			return result, nil
		}
		result.Datagrams++

		values, err := sequence.ParseChunk(buffer[:n])
		if err != nil {
			return result, err
		}
		for _, v := range values {
			result.tracker.Track(v)
		}
		result.Values = append(result.Values, values...)
	}
}

// deadline is the idle timeout from now, capped by the context deadline
func (q *Requester) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(q.config.IdleTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
