package main

import (
	"fmt"
	"net"
	"os"

	"github.com/drunlade/go-pap/pap"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

// sshDialer connects to the --ssh-jump host. Credentials come from
// --ssh-key, the PAP_SSH_PASSWORD environment variable, or a password
// prompt when stdin is a terminal.
func (o *options) sshDialer(cmd *cobra.Command) (*pap.SSHDialer, error) {
	addr := o.sshJump
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}
	sshUser := o.sshUser
	if sshUser == "" {
		sshUser = o.user
	}

	var auth []ssh.AuthMethod
	if o.sshKey != "" {
		method, err := pap.SSHKeyAuth(o.sshKey)
		if err != nil {
			return nil, err
		}
		auth = append(auth, method)
	}

	if pass := os.Getenv("PAP_SSH_PASSWORD"); pass != "" {
		auth = append(auth, ssh.Password(pass))
	} else if o.sshKey == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("no SSH credentials for %s: use --ssh-key or PAP_SSH_PASSWORD", addr)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s@%s's password: ", sshUser, addr)
		pass, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		auth = append(auth, ssh.Password(string(pass)))
	}

	config, err := pap.SSHClientConfig(sshUser, auth, o.knownHosts, o.timeout)
	if err != nil {
		return nil, err
	}
	return pap.NewSSHDialer(addr, config)
}
