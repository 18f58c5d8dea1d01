package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"seq-transfer/internal/config"
	"seq-transfer/internal/tcpsender"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Bind address")
	flag.IntVar(&cfg.TCPPort, "port", cfg.TCPPort, "TCP listen port")
	flag.IntVar(&cfg.Count, "n", cfg.Count, "Upper bound of the sequence 1..N")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := tcpsender.New(cfg).Serve(ctx); err != nil {
		log.Fatalf("TCP sender failed: %v", err)
	}
}
