package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"seq-transfer/internal/config"
	"seq-transfer/internal/metrics"
	"seq-transfer/internal/status"
	"seq-transfer/internal/udpresponder"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Bind address")
	flag.IntVar(&cfg.UDPPort, "port", cfg.UDPPort, "UDP listen port")
	flag.IntVar(&cfg.Count, "n", cfg.Count, "Upper bound of the sequence 1..N")
	flag.StringVar(&cfg.StatusAddr, "status", cfg.StatusAddr, "Status server address (empty disables it)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics()
	interval := time.Duration(cfg.MetricsIntervalSec) * time.Second

	if cfg.StatusAddr != "" {
		srv := status.NewServer(cfg.StatusAddr, m, interval)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Printf("[Status] ERROR: %v", err)
			}
		}()
	}

	go startMetricsReporter(ctx, m, interval)

	if err := udpresponder.New(cfg, m).Serve(ctx); err != nil {
		log.Fatalf("UDP responder failed: %v", err)
	}

	log.Println("UDP responder stopped")
}

// startMetricsReporter periodically reports metrics
func startMetricsReporter(ctx context.Context, m *metrics.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.GetGlobalStats()
			log.Printf("STATUS: Requests=%d Sent=%d Ignored=%d Errors=%d Burst p50=%.1fms max=%.1fms",
				stats.TotalRequests, stats.DatagramsSent, stats.IgnoredDatagrams, stats.SendErrors,
				stats.P50Burst, stats.MaxBurst)
		}
	}
}
