package pap

import (
	"fmt"
	"time"
)

// Config holds client configuration.
type Config struct {
	// Username is sent as a frame after the unlock signal so the peer can
	// expand "~". Empty omits the frame for peers that do not expect it.
	Username string

	// ConnectTimeout bounds connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout and WriteTimeout bound each socket read/write once
	// connected (0 = no deadline)
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// KeepAlive is the TCP keepalive period (0 = OS default, <0 = off)
	KeepAlive time.Duration

	// ChunkSize is the file body read/write unit
	ChunkSize int

	// MaxFrameLength caps frame payloads, at most MaxFrameLength
	MaxFrameLength int

	// UnlockSignal is the leading session byte
	UnlockSignal byte

	// ProgressInterval throttles OnProgress callbacks
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:   10 * time.Second,
		ReadTimeout:      0,
		WriteTimeout:     0,
		KeepAlive:        0,
		ChunkSize:        DefaultChunkSize,
		MaxFrameLength:   MaxFrameLength,
		UnlockSignal:     DefaultUnlockSignal,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Validate checks the configuration for values the protocol cannot honor.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 {
		return NewError(ErrProtocol, "connect timeout must be positive")
	}
	if c.ChunkSize <= 0 {
		return NewError(ErrProtocol, fmt.Sprintf("chunk size %d must be positive", c.ChunkSize))
	}
	if c.MaxFrameLength < 1 || c.MaxFrameLength > MaxFrameLength {
		return NewError(ErrProtocol, fmt.Sprintf("max frame length %d outside [1, %d]", c.MaxFrameLength, MaxFrameLength))
	}
	if c.Username != "" && len(c.Username) > c.MaxFrameLength {
		return frameLengthError("username", len(c.Username), c.MaxFrameLength)
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithConfig sets the client configuration.
func WithConfig(config *Config) Option {
	return func(c *Client) {
		c.config = config
	}
}

// WithUsername sets the username frame sent during the handshake.
func WithUsername(username string) Option {
	return func(c *Client) {
		c.username = &username
	}
}

// WithCallbacks sets the client callbacks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(c *Client) {
		c.callbacks = mergeCallbacks(callbacks)
	}
}

// WithLogger sets a logger for protocol debugging.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer replaces the TCP dialer, e.g. with an SSHDialer.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}
