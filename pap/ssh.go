package pap

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHDialer reaches PAP peers through an SSH jump host using direct-tcpip
// channels. The PAP exchange itself is unchanged; the jump host only
// carries the byte stream.
type SSHDialer struct {
	client *ssh.Client
}

// NewSSHDialer connects to the jump host at addr.
func NewSSHDialer(addr string, config *ssh.ClientConfig) (*SSHDialer, error) {
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, &Error{Kind: ErrConnectFailure, Op: "ssh connect", Message: addr, Err: err}
	}
	return &SSHDialer{client: client}, nil
}

// NewSSHDialerFromClient wraps an already established SSH client.
func NewSSHDialerFromClient(client *ssh.Client) *SSHDialer {
	return &SSHDialer{client: client}
}

// DialContext opens a channel from the jump host to address.
// Channel conns do not support deadlines.
func (d *SSHDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.client.DialContext(ctx, network, address)
}

// Close shuts down the jump host connection.
func (d *SSHDialer) Close() error {
	return d.client.Close()
}

// SSHClientConfig builds a client config for a jump host. With an empty
// knownHostsFile host keys are not verified.
func SSHClientConfig(user string, auth []ssh.AuthMethod, knownHostsFile string, timeout time.Duration) (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if knownHostsFile != "" {
		cb, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", knownHostsFile, err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// SSHKeyAuth loads a private key file as an SSH auth method.
func SSHKeyAuth(path string) (ssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key %s: %w", path, err)
	}
	return ssh.PublicKeys(signer), nil
}
