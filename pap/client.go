package pap

import (
	"context"
	"net"
	"path/filepath"
	"time"
)

// Client performs PAP operations against one peer. Every call opens a
// fresh connection that lives exactly as long as the call; connections
// are never reused, so concurrent calls share no connection state.
type Client struct {
	address  string
	username *string

	config    *Config
	callbacks *Callbacks
	logger    Logger
	dialer    Dialer
	codec     *Codec
}

// TransferResult describes a completed upload or download.
type TransferResult struct {
	RemotePath string
	LocalPath  string // empty for uploads
	Bytes      int64
	Duration   time.Duration
}

// NewClient creates a client for the peer at host:port.
func NewClient(host string, port int, opts ...Option) (*Client, error) {
	c := &Client{
		address:   Address(host, port),
		config:    DefaultConfig(),
		callbacks: defaultCallbacks(),
		logger:    NoopLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.config == nil {
		c.config = DefaultConfig()
	}
	if c.username != nil {
		cfg := *c.config
		cfg.Username = *c.username
		c.config = &cfg
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = NoopLogger{}
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{KeepAlive: c.config.KeepAlive}
	}
	c.codec = NewCodec(c.config.MaxFrameLength)

	return c, nil
}

// Address returns the peer address this client dials.
func (c *Client) Address() string {
	return c.address
}

// Download fetches remotePath into destDir (created if missing) and
// returns where the file was written. The local name is the one the peer
// suggests. A peer refusal leaves the local filesystem untouched.
func (c *Client) Download(ctx context.Context, remotePath, destDir string) (*TransferResult, error) {
	if err := c.codec.CheckLength("remote path", len(remotePath)); err != nil {
		return nil, err
	}

	var result *TransferResult
	err := c.run(ctx, ModeDownload, func(s *session) error {
		var err error
		result, err = s.download(remotePath, destDir)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Upload sends localPath to the peer under remoteTarget, or under the
// local base name when remoteTarget is empty. A missing source fails
// with ErrLocalFileNotFound before any connection is opened.
func (c *Client) Upload(ctx context.Context, localPath, remoteTarget string) (*TransferResult, error) {
	file, info, err := openSource(localPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if remoteTarget == "" {
		remoteTarget = filepath.Base(localPath)
	}
	if err := c.codec.CheckLength("remote target", len(remoteTarget)); err != nil {
		return nil, err
	}

	var result *TransferResult
	err = c.run(ctx, ModeUpload, func(s *session) error {
		var err error
		result, err = s.upload(remoteTarget, file, info.Size())
		return err
	})
	if err != nil {
		return nil, err
	}
	result.LocalPath = localPath
	return result, nil
}

// List returns the entries of remoteDir in the order the peer sent them.
func (c *Client) List(ctx context.Context, remoteDir string) ([]string, error) {
	if err := c.codec.CheckLength("remote directory", len(remoteDir)); err != nil {
		return nil, err
	}

	var entries []string
	err := c.run(ctx, ModeList, func(s *session) error {
		var err error
		entries, err = s.list(remoteDir)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// run owns one connection for the lifetime of a single operation: open,
// handshake, fn, then close on every path.
func (c *Client) run(ctx context.Context, mode Mode, fn func(s *session) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.handshake(c.config.Username, mode)
	if err == nil {
		err = fn(s)
	}
	if err != nil {
		if ctx.Err() != nil {
			if pe, ok := err.(*Error); ok && pe.Kind == ErrConnectionClosed && pe.Message == "" {
				pe.Message = "cancelled: " + ctx.Err().Error()
			}
		}
		s.logger.Error("%s failed in state %s: %v", mode, s.State(), err)
		s.emit(EventError, err.Error())
		return err
	}
	return nil
}
