package main

import (
	"flag"
	"io"
	"log"
	"net"
	"os"
	"time"

	"seq-transfer/internal/config"
	"seq-transfer/internal/sequence"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Sender address")
	flag.IntVar(&cfg.TCPPort, "port", cfg.TCPPort, "Sender TCP port")
	flag.IntVar(&cfg.Count, "n", cfg.Count, "Upper bound of the expected sequence 1..N")
	flag.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Exit non-zero unless the stream matches exactly")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	conn, err := net.DialTimeout("tcp", cfg.TCPAddr(), 5*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.TCPAddr(), err)
	}
	defer conn.Close()

	log.Printf("[TCP Receiver] INFO: Connected to %s", cfg.TCPAddr())

	data, err := io.ReadAll(conn)
	if err != nil {
		log.Fatalf("Failed to read stream: %v", err)
	}

	values, err := sequence.ParseChunk(data)
	if err != nil {
		log.Fatalf("Failed to parse stream: %v", err)
	}

	report := sequence.Compare(values, sequence.Expected(cfg.Count))
	for _, m := range report.Mismatches {
		log.Println(m)
	}
	if report.LengthMismatch() {
		log.Printf("[TCP Receiver] WARN: received %d values, expected %d", report.Received, report.Expected)
	}
	log.Printf("[TCP Receiver] INFO: Finished checking %d bytes.", len(data))

	if cfg.Strict && !report.OK() {
		conn.Close()
		os.Exit(1)
	}
}
