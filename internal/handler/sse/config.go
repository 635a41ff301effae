package sse

import "time"

// Config holds settings for progress streams.
type Config struct {
	// KeepAliveInterval is how often a comment line is sent while a long
	// document is being recognized, so proxies keep the connection open.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns a 10 second keep-alive interval.
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
	}
}
