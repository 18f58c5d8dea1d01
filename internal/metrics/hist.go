package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

const maxBurstSamples = 10000

// Metrics provides burst timing and datagram statistics for the UDP responder
type Metrics struct {
	// Peer metrics
	peerMetrics sync.Map // requester address -> *PeerMetrics

	// Global counters
	totalRequests    int64
	ignoredDatagrams int64
	mu               sync.RWMutex // Mutex for global counters
}

// PeerMetrics stores metrics for a single requester address
type PeerMetrics struct {
	Addr           string    `json:"addr"`
	FirstSeen      time.Time `json:"first_seen"`
	BurstDurations []float64 `json:"burst_durations_ms"`
	Requests       int64     `json:"requests"`
	DatagramsSent  int64     `json:"datagrams_sent"`
	SendErrors     int64     `json:"send_errors"`

	mu sync.RWMutex
}

// GlobalStats provides aggregated statistics
type GlobalStats struct {
	Peers            int       `json:"peers"`
	TotalRequests    int64     `json:"total_requests"`
	IgnoredDatagrams int64     `json:"ignored_datagrams"`
	DatagramsSent    int64     `json:"datagrams_sent"`
	SendErrors       int64     `json:"send_errors"`
	P50Burst         float64   `json:"p50_burst_ms"`
	P95Burst         float64   `json:"p95_burst_ms"`
	P99Burst         float64   `json:"p99_burst_ms"`
	MaxBurst         float64   `json:"max_burst_ms"`
	AvgBurst         float64   `json:"avg_burst_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) peer(addr string) *PeerMetrics {
	metricsInterface, _ := m.peerMetrics.LoadOrStore(addr, &PeerMetrics{
		Addr:           addr,
		FirstSeen:      time.Now(),
		BurstDurations: make([]float64, 0, 64),
	})
	return metricsInterface.(*PeerMetrics)
}

// RecordRequest records a matching request from addr
func (m *Metrics) RecordRequest(addr string) {
	metrics := m.peer(addr)
	metrics.mu.Lock()
	metrics.Requests++
	metrics.mu.Unlock()

	m.mu.Lock()
	m.totalRequests++
	m.mu.Unlock()
}

// RecordIgnored records a datagram that did not carry the request token
func (m *Metrics) RecordIgnored() {
	m.mu.Lock()
	m.ignoredDatagrams++
	m.mu.Unlock()
}

// RecordBurst records a finished burst towards addr
func (m *Metrics) RecordBurst(addr string, sent int64, duration time.Duration) {
	metrics := m.peer(addr)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	metrics.DatagramsSent += sent
	metrics.BurstDurations = append(metrics.BurstDurations, float64(duration)/float64(time.Millisecond))

	// Limit buffer size
	if len(metrics.BurstDurations) > maxBurstSamples {
		metrics.BurstDurations = append([]float64(nil), metrics.BurstDurations[maxBurstSamples/10:]...)
	}
}

// RecordSendError records a failed datagram send towards addr
func (m *Metrics) RecordSendError(addr string) {
	metrics := m.peer(addr)
	metrics.mu.Lock()
	metrics.SendErrors++
	metrics.mu.Unlock()
}

// GetGlobalStats calculates global statistics
func (m *Metrics) GetGlobalStats() *GlobalStats {
	now := time.Now()
	allBursts := make([]float64, 0)
	peers := 0
	var sent, sendErrors int64

	// Collect data from all peers
	m.peerMetrics.Range(func(key, value interface{}) bool {
		if metrics, ok := value.(*PeerMetrics); ok {
			metrics.mu.RLock()

			peers++
			allBursts = append(allBursts, metrics.BurstDurations...)
			sent += metrics.DatagramsSent
			sendErrors += metrics.SendErrors

			metrics.mu.RUnlock()
		}
		return true
	})

	m.mu.RLock()
	totalRequests := m.totalRequests
	ignored := m.ignoredDatagrams
	m.mu.RUnlock()

	stats := &GlobalStats{
		Peers:            peers,
		TotalRequests:    totalRequests,
		IgnoredDatagrams: ignored,
		DatagramsSent:    sent,
		SendErrors:       sendErrors,
		Timestamp:        now,
	}

	// Calculate percentiles and statistics
	if len(allBursts) > 0 {
		sort.Float64s(allBursts)

		n := len(allBursts)
		stats.P50Burst = allBursts[int(float64(n)*0.5)]
		stats.P95Burst = allBursts[int(math.Min(float64(n)*0.95, float64(n-1)))]
		stats.P99Burst = allBursts[int(math.Min(float64(n)*0.99, float64(n-1)))]
		stats.MaxBurst = allBursts[n-1]

		sum := 0.0
		for _, d := range allBursts {
			sum += d
		}
		stats.AvgBurst = sum / float64(n)
	}

	return stats
}
