package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"seq-transfer/internal/config"
	"seq-transfer/internal/sequence"
	"seq-transfer/internal/udprequester"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Responder address")
	flag.IntVar(&cfg.UDPPort, "port", cfg.UDPPort, "Responder UDP port")
	flag.IntVar(&cfg.Count, "n", cfg.Count, "Upper bound of the expected sequence 1..N")
	flag.DurationVar(&cfg.IdleTimeout, "timeout", cfg.IdleTimeout, "Idle receive timeout")
	flag.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Exit non-zero unless every value arrived in order")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := udprequester.New(cfg).Fetch(ctx)
	if err != nil {
		log.Fatalf("UDP requester failed: %v", err)
	}

	report := sequence.Compare(result.Values, sequence.Expected(cfg.Count))
	for _, m := range report.Mismatches {
		log.Println(m)
	}

	incoming, duplicate, reordered := result.Stats()
	log.Printf("[UDP Requester] INFO: datagrams=%d values=%d duplicates=%d reordered=%d missing=%d",
		result.Datagrams, incoming, duplicate, reordered, result.Missing(cfg.Count))
	if report.LengthMismatch() {
		log.Printf("[UDP Requester] WARN: received %d values, expected %d; only the first %d were compared",
			report.Received, report.Expected, minInt(report.Received, report.Expected))
	}
	log.Println("[UDP Requester] INFO: Finished checking data.")

	if cfg.Strict && !report.OK() {
		os.Exit(1)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
