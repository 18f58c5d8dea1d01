package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultHost is the loopback address all three tools use
	DefaultHost = "127.0.0.1"
	// DefaultTCPPort is the port the TCP sender listens on
	DefaultTCPPort = 12345
	// DefaultUDPPort is the port the UDP responder listens on
	DefaultUDPPort = 12346
	// DefaultCount is the upper bound N of the sequence 1..N
	DefaultCount = 10000
	// DefaultIdleTimeout is how long the requester waits for the next datagram
	DefaultIdleTimeout = 5 * time.Second
)

// Config holds the settings shared by the sender, responder and requester
type Config struct {
	Host               string
	TCPPort            int
	UDPPort            int
	Count              int
	IdleTimeout        time.Duration
	Strict             bool   // fail validation when received and expected lengths differ
	StatusAddr         string // empty disables the responder status server
	MetricsIntervalSec int
}

// Default returns the configuration matching the fixed constants of the tools
func Default() *Config {
	return &Config{
		Host:               DefaultHost,
		TCPPort:            DefaultTCPPort,
		UDPPort:            DefaultUDPPort,
		Count:              DefaultCount,
		IdleTimeout:        DefaultIdleTimeout,
		MetricsIntervalSec: 10,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	def := Default()
	config := &Config{
		Host:               getEnv("SEQ_HOST", def.Host),
		TCPPort:            getEnvAsInt("SEQ_TCP_PORT", def.TCPPort),
		UDPPort:            getEnvAsInt("SEQ_UDP_PORT", def.UDPPort),
		Count:              getEnvAsInt("SEQ_COUNT", def.Count),
		IdleTimeout:        time.Duration(getEnvAsInt("SEQ_IDLE_TIMEOUT_MS", int(def.IdleTimeout/time.Millisecond))) * time.Millisecond,
		Strict:             getEnvAsBool("SEQ_STRICT", def.Strict),
		StatusAddr:         getEnv("SEQ_STATUS_ADDR", def.StatusAddr),
		MetricsIntervalSec: getEnvAsInt("SEQ_METRICS_INTERVAL_SEC", def.MetricsIntervalSec),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("invalid count %d: must be at least 1", c.Count)
	}
	if c.TCPPort < 0 || c.TCPPort > 65535 {
		return fmt.Errorf("invalid TCP port %d", c.TCPPort)
	}
	if c.UDPPort < 0 || c.UDPPort > 65535 {
		return fmt.Errorf("invalid UDP port %d", c.UDPPort)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("invalid idle timeout %v", c.IdleTimeout)
	}
	if c.MetricsIntervalSec <= 0 {
		return fmt.Errorf("invalid metrics interval %d", c.MetricsIntervalSec)
	}
	return nil
}

// TCPAddr is the host:port of the TCP sender
func (c *Config) TCPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.TCPPort))
}

// UDPAddr is the host:port of the UDP responder
func (c *Config) UDPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.UDPPort))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
