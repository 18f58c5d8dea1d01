package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestGlobalStatsAggregatesPeers(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("127.0.0.1:1000")
	m.RecordBurst("127.0.0.1:1000", 5, 10*time.Millisecond)
	m.RecordRequest("127.0.0.1:2000")
	m.RecordBurst("127.0.0.1:2000", 3, 30*time.Millisecond)
	m.RecordSendError("127.0.0.1:2000")
	m.RecordIgnored()
	m.RecordIgnored()

	stats := m.GetGlobalStats()
	if stats.Peers != 2 || stats.TotalRequests != 2 || stats.IgnoredDatagrams != 2 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.DatagramsSent != 8 || stats.SendErrors != 1 {
		t.Errorf("unexpected datagram counters: %+v", stats)
	}
	if stats.MaxBurst != 30 || stats.AvgBurst != 20 {
		t.Errorf("unexpected burst stats: max=%v avg=%v", stats.MaxBurst, stats.AvgBurst)
	}
	if stats.P50Burst != 30 {
		t.Errorf("P50 = %v", stats.P50Burst)
	}
}

func TestGlobalStatsEmpty(t *testing.T) {
	stats := NewMetrics().GetGlobalStats()
	if stats.Peers != 0 || stats.MaxBurst != 0 {
		t.Errorf("empty metrics should be zero: %+v", stats)
	}
}

func TestBurstSamplesAreBounded(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < maxBurstSamples+1; i++ {
		m.RecordBurst("peer", 1, time.Millisecond)
	}
	v, _ := m.peerMetrics.Load("peer")
	if n := len(v.(*PeerMetrics).BurstDurations); n > maxBurstSamples {
		t.Errorf("burst samples not trimmed: %d", n)
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRequest("peer")
				m.RecordBurst("peer", 1, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if stats := m.GetGlobalStats(); stats.TotalRequests != 800 || stats.DatagramsSent != 800 {
		t.Errorf("lost updates: %+v", stats)
	}
}
