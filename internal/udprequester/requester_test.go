package udprequester

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"seq-transfer/internal/config"
	"seq-transfer/internal/sequence"
	"seq-transfer/internal/udpresponder"
)

// fakeResponder answers the first token it reads with the given payloads
func fakeResponder(t *testing.T, payloads ...string) *net.UDPAddr {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, sequence.MaxDatagramSize)
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil || string(buf[:n]) != sequence.RequestToken {
			return
		}
		for _, p := range payloads {
			conn.WriteToUDP([]byte(p), addr)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr)
}

func testConfig(addr *net.UDPAddr, n int) *config.Config {
	cfg := config.Default()
	cfg.Host = addr.IP.String()
	cfg.UDPPort = addr.Port
	cfg.Count = n
	cfg.IdleTimeout = 300 * time.Millisecond
	return cfg
}

func TestFetchEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.UDPPort = 0
	cfg.Count = 5

	r := udpresponder.New(cfg, nil)
	if err := r.Listen(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	result, err := New(testConfig(r.LocalAddr().(*net.UDPAddr), 5)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(result.Values, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("values = %v", result.Values)
	}
	if !result.TimedOut || result.Datagrams != 5 {
		t.Errorf("unexpected result: %+v", result)
	}

	report := sequence.Compare(result.Values, sequence.Expected(5))
	if len(report.Mismatches) != 0 || !report.OK() {
		t.Errorf("expected a clean report, got %+v", report)
	}
}

func TestFetchLossIsFlagged(t *testing.T) {
	addr := fakeResponder(t, "1\n", "2\n", "4\n", "5\n")

	result, err := New(testConfig(addr, 5)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(result.Values, []int{1, 2, 4, 5}) {
		t.Fatalf("values = %v", result.Values)
	}

	report := sequence.Compare(result.Values, sequence.Expected(5))
	want := []sequence.Mismatch{
		{Index: 2, Received: 4, Expected: 3},
		{Index: 3, Received: 5, Expected: 4},
	}
	if !reflect.DeepEqual(report.Mismatches, want) {
		t.Errorf("mismatches = %v, want %v", report.Mismatches, want)
	}
	// index 4 is skipped by the index-wise comparison; only the length check sees it
	if !report.LengthMismatch() {
		t.Error("loss must be flagged by the length check")
	}
	if result.Missing(5) != 1 {
		t.Errorf("Missing(5) = %d, want 1", result.Missing(5))
	}
}

func TestFetchTimeoutWithoutReply(t *testing.T) {
	addr := fakeResponder(t) // reads the request, never replies

	start := time.Now()
	result, err := New(testConfig(addr, 5)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if !result.TimedOut || len(result.Values) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("returned before the idle timeout: %v", elapsed)
	}

	// zip comparison passes silently; the strict verdict does not
	report := sequence.Compare(result.Values, sequence.Expected(5))
	if len(report.Mismatches) != 0 {
		t.Errorf("empty sequence produced mismatches: %v", report.Mismatches)
	}
	if report.OK() {
		t.Error("empty sequence must fail the strict check")
	}
}

func TestFetchStopsOnEmptyDatagram(t *testing.T) {
	addr := fakeResponder(t, "1\n2\n", "", "3\n")

	result, err := New(testConfig(addr, 3)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.TimedOut {
		t.Error("empty datagram should end the loop before the timeout")
	}
	if !reflect.DeepEqual(result.Values, []int{1, 2}) {
		t.Errorf("values = %v", result.Values)
	}
}

func TestFetchTracksReordering(t *testing.T) {
	addr := fakeResponder(t, "1\n", "3\n", "2\n", "3\n")

	result, err := New(testConfig(addr, 3)).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	incoming, duplicate, reordered := result.Stats()
	if incoming != 4 || duplicate != 1 || reordered != 1 {
		t.Errorf("stats = %d/%d/%d", incoming, duplicate, reordered)
	}
}

func TestFetchMalformedDatagram(t *testing.T) {
	addr := fakeResponder(t, "1\n", "oops\n")

	result, err := New(testConfig(addr, 2)).Fetch(context.Background())
	if !errors.Is(err, sequence.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if !reflect.DeepEqual(result.Values, []int{1}) {
		t.Errorf("values before the failure = %v", result.Values)
	}
}

func TestFetchCancelled(t *testing.T) {
	addr := fakeResponder(t)
	cfg := testConfig(addr, 5)
	cfg.IdleTimeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := New(cfg).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not interrupt the read")
	}
}
